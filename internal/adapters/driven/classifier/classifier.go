// Package classifier recommends where imported files belong in the workspace.
//
// With an LLM configured, recommendations come from a JSON prompt built
// from the file name, a short content preview, the content description
// and the candidate folders. Without one, files are categorised by
// extension and keywords.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/filer-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/filer-cli/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Verify interface compliance.
var (
	_ driven.Classifier       = (*Classifier)(nil)
	_ driven.PromptStoreAware = (*Classifier)(nil)
)

const (
	// previewChars is how much text content is shown to the LLM.
	previewChars = 500

	// parseFallbackConfidence is reported when the LLM reply is not usable.
	parseFallbackConfidence = 0.5

	defaultFolder   = "Documents"
	maxAlternatives = 3
)

// textExtensions are read for a content preview.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true, ".tsv": true,
	".json": true, ".yaml": true, ".yml": true, ".xml": true, ".html": true,
	".htm": true, ".log": true, ".eml": true, ".ics": true, ".rst": true,
}

// Options configures a Classifier.
type Options struct {
	// MaxDepth limits directory listing depth. Defaults to filesystem.DefaultMaxDepth.
	MaxDepth int

	// RequestsPerMinute throttles LLM calls. Defaults to DefaultRequestsPerMinute.
	RequestsPerMinute int
}

// Classifier implements driven.Classifier.
type Classifier struct {
	llm      driven.LLMService
	limiter  *RateLimiter
	maxDepth int

	mu      sync.RWMutex
	prompts driven.PromptStore
}

// New creates a classifier. llm may be nil, in which case recommendations
// are rule-based and image description fails.
func New(llm driven.LLMService, opts Options) *Classifier {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = filesystem.DefaultMaxDepth
	}
	return &Classifier{
		llm:      llm,
		limiter:  NewRateLimiter(opts.RequestsPerMinute),
		maxDepth: opts.MaxDepth,
	}
}

// SetPromptStore sets the store customised prompts are loaded from.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = store
}

// ListDirectories recursively enumerates the workspace.
func (c *Classifier) ListDirectories(ctx context.Context, root string) ([]domain.DirectoryEntry, error) {
	return filesystem.ListDirectories(ctx, root, c.maxDepth)
}

// DescribeImage asks the LLM to describe an image given as a base64 data URL.
func (c *Classifier) DescribeImage(ctx context.Context, dataURL, locale string) (string, error) {
	if c.llm == nil {
		return "", domain.NewServiceError(domain.CodeDescribeFailed,
			"cannot describe image: no LLM provider configured", domain.ErrLLMUnavailable)
	}

	mimeType, data, err := parseDataURL(dataURL)
	if err != nil {
		return "", domain.NewServiceError(domain.CodeDescribeFailed, "cannot describe image: "+err.Error(), err)
	}
	if locale == "" {
		locale = domain.DefaultLocale
	}

	tmpl, err := c.prompt(driven.PromptDescribeImage)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	desc, err := c.llm.DescribeImage(ctx, mimeType, data, fmt.Sprintf(tmpl, locale))
	if err != nil {
		return "", domain.NewServiceError(domain.CodeDescribeFailed, "failed to describe image", err)
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", domain.NewServiceError(domain.CodeDescribeFailed, "image description was empty", nil)
	}
	return desc, nil
}

// RecommendDirectory picks a destination for the file among the candidates.
func (c *Classifier) RecommendDirectory(ctx context.Context, req domain.RecommendRequest) (*domain.Recommendation, error) {
	fileName := req.FileName
	if fileName == "" {
		fileName = filepath.Base(req.StagedPath)
	}
	preview := readPreview(req.StagedPath)

	if c.llm == nil {
		rec := recommendByRules(fileName, preview+" "+req.Description, req.Candidates)
		logger.Debug("rule-based recommendation", "file", fileName, "directory", rec.Recommended)
		return rec, nil
	}

	tmpl, err := c.prompt(driven.PromptRecommendDirectory)
	if err != nil {
		return nil, err
	}
	if preview == "" {
		preview = "No content available"
	}
	description := req.Description
	if description == "" {
		description = "None"
	}
	prompt := fmt.Sprintf(tmpl, fileName, preview, description, formatCandidates(req.Candidates))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	reply, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, domain.NewServiceError(domain.CodeLLMError, "failed to generate directory recommendation", err)
	}

	rec, err := parseRecommendation(reply)
	if err != nil {
		logger.Warn("unusable recommendation reply, falling back", "file", fileName, "error", err)
		return fallbackRecommendation(req.Candidates), nil
	}
	return rec, nil
}

func (c *Classifier) prompt(name string) (string, error) {
	c.mu.RLock()
	store := c.prompts
	c.mu.RUnlock()

	if store == nil {
		return file.DefaultPrompt(name)
	}
	tmpl, err := store.Load(name)
	if err != nil {
		logger.Warn("loading prompt failed, using default", "prompt", name, "error", err)
		return file.DefaultPrompt(name)
	}
	return tmpl, nil
}

// recommendationReply is the JSON shape the prompt asks for.
type recommendationReply struct {
	RecommendedDirectory string   `json:"recommended_directory"`
	Confidence           *float64 `json:"confidence"`
	Reasoning            string   `json:"reasoning"`
	Alternatives         []string `json:"alternatives"`
}

// parseRecommendation decodes a reply, tolerating markdown fences and
// prose around the JSON object.
func parseRecommendation(reply string) (*domain.Recommendation, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, errors.New("reply contains no JSON object")
	}

	var parsed recommendationReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	rec := &domain.Recommendation{
		Recommended: cleanDir(parsed.RecommendedDirectory),
		Confidence:  parseFallbackConfidence,
		Reasoning:   strings.TrimSpace(parsed.Reasoning),
	}
	if parsed.Confidence != nil {
		rec.Confidence = min(max(*parsed.Confidence, 0), 1)
	}
	if rec.Reasoning == "" {
		rec.Reasoning = "Recommended based on file analysis"
	}

	seen := map[string]bool{rec.Recommended: true}
	for _, alt := range parsed.Alternatives {
		alt = cleanDir(alt)
		if alt == "" || seen[alt] {
			continue
		}
		seen[alt] = true
		rec.Alternatives = append(rec.Alternatives, alt)
		if len(rec.Alternatives) == maxAlternatives {
			break
		}
	}
	return rec, nil
}

func fallbackRecommendation(candidates []string) *domain.Recommendation {
	dir := defaultFolder
	if len(candidates) > 0 {
		dir = candidates[0]
	}
	return &domain.Recommendation{
		Recommended: dir,
		Confidence:  parseFallbackConfidence,
		Reasoning:   "Fallback recommendation because the model reply could not be parsed",
	}
}

// cleanDir normalises an LLM-supplied folder to a workspace-relative,
// slash-separated path.
func cleanDir(dir string) string {
	dir = strings.TrimSpace(strings.ReplaceAll(dir, "\\", "/"))
	dir = strings.TrimPrefix(dir, "./")
	return strings.Trim(dir, "/")
}

func formatCandidates(candidates []string) string {
	if len(candidates) == 0 {
		return "(the workspace has no folders yet)"
	}
	var b strings.Builder
	for _, c := range candidates {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// readPreview returns the first previewChars characters of a text file.
// Binary or unreadable files yield an empty preview.
func readPreview(path string) string {
	if path == "" || !textExtensions[strings.ToLower(filepath.Ext(path))] {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	// Enough bytes for previewChars multi-byte runes.
	buf, err := io.ReadAll(io.LimitReader(f, previewChars*utf8.UTFMax))
	if err != nil || !utf8.Valid(trimPartialRune(buf)) {
		return ""
	}
	text := string(trimPartialRune(buf))
	if utf8.RuneCountInString(text) > previewChars {
		text = string([]rune(text)[:previewChars])
	}
	return strings.TrimSpace(text)
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
