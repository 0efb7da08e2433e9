package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// placeholders is the number of %s verbs each prompt is rendered with.
var placeholders = map[string]int{
	driven.PromptRecommendDirectory: 4,
	driven.PromptDescribeImage:      1,
}

//nolint:lll // prompt text
var defaultPrompts = map[string]string{
	driven.PromptRecommendDirectory: `Decide which folder of the workspace this file belongs in.

File name: %s

Content preview:
%s

Description:
%s

Existing folders (relative to the workspace root):
%s

Rules:
- Prefer an existing folder whose name or project matches the file name or content.
- If none fits, propose a new folder path instead of forcing an unrelated one.
- Give up to 3 alternatives, best first.

Reply with JSON only, no markdown fences:
{"recommended_directory": "<folder>", "confidence": <0-1>, "reasoning": "<one sentence>", "alternatives": ["<folder>"]}`,

	driven.PromptDescribeImage: `Describe this image in two or three sentences so it can be filed and found later.
Mention visible text, document type, people or objects, and any dates or names.
Answer in the language with code "%s".`,
}

const promptsReadme = `# Filer Prompts

These are the prompts filer sends to the configured LLM. Edit one to change
how files are described or filed; delete it to get the default back.

recommend_directory.txt
    Picks the destination folder. Four %s placeholders, in order: file name,
    content preview, description, folder list. Keep the JSON reply format.

describe_image.txt
    Describes an imported image. One %s placeholder: the answer language.

A file with the wrong number of placeholders is ignored and the default is used.
Edits are picked up the next time filer starts.
`

// PromptStore serves prompt templates from a directory of .txt files,
// seeding it with the defaults on first use. Templates are cached until
// Reload.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore returns a store over dir, or prompts/ under DefaultDir
// when dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, error) {
	if prompt, ok := defaultPrompts[name]; ok {
		return prompt, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// Load returns the template for name. A missing, unreadable or malformed
// file yields the default.
func (s *PromptStore) Load(name string) (string, error) {
	def, err := DefaultPrompt(name)
	if err != nil {
		return "", err
	}

	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	if s.seedErr != nil {
		return def, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}

	prompt := def
	if custom, err := s.read(name); err == nil {
		prompt = custom
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("using default prompt", "prompt", name, "error", err)
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if got, want := strings.Count(prompt, "%s"), placeholders[name]; got != want {
		return "", fmt.Errorf("%s: %d placeholders, want %d", s.path(name), got, want)
	}
	return prompt, nil
}

// seed creates the directory, the default templates and the README without
// touching files that already exist.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	files := map[string]string{"README.md": promptsReadme}
	for name, content := range defaultPrompts {
		files[name+".txt"] = content
	}
	for file, content := range files {
		err := writeIfMissing(filepath.Join(s.dir, file), content)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
