// Package textutil holds helpers shared by the normalisers.
package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Result builds a normalised document from raw. The raw metadata is
// copied and annotated with the MIME type and format.
func Result(raw *domain.RawDocument, format, title, content string) *driven.NormaliseResult {
	now := time.Now()

	metadata := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:        uuid.NewString(),
			RecordID:  raw.RecordID,
			URI:       raw.URI,
			Title:     title,
			Content:   content,
			Metadata:  metadata,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Title returns the first non-empty candidate, then the raw title hint,
// then a title derived from the URI.
func Title(raw *domain.RawDocument, candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	if hint := raw.Title(); hint != "" {
		return hint
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI turns "quarterly_report-v2.txt" into "quarterly report v2".
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// TidyLines trims every line, drops blank runs longer than one line and
// trims the result.
func TidyLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
