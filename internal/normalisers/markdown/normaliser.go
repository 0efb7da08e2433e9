// Package markdown normalises Markdown documents to plain text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	fenceMarkers = regexp.MustCompile("(?m)^[ \\t]*(```|~~~).*$")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	headings     = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	blockquotes  = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rules        = regexp.MustCompile(`(?m)^[ \t]*([-*_])([ \t]*([-*_])){2,}[ \t]*$`)
	bullets      = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+(\[[ xX]\][ \t]+)?`)
	numbered     = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	strong       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italic       = regexp.MustCompile(`\*([^*\n]+)\*`)
	underscores  = regexp.MustCompile(`(?m)(^|[ \t(])__?([^_\n]+?)__?([ \t).,;:!?]|$)`)
	h1           = regexp.MustCompile(`(?m)^[ \t]{0,3}#[ \t]+(.+?)[ \t]*#*[ \t]*$`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown syntax. The first level-one heading, if any,
// becomes the title. Code block contents are kept as text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	source = frontMatter.ReplaceAllString(source, "")

	heading := ""
	if m := h1.FindStringSubmatch(source); m != nil {
		heading = m[1]
	}

	return textutil.Result(raw, "markdown", textutil.Title(raw, heading), toText(source)), nil
}

func toText(md string) string {
	md = fenceMarkers.ReplaceAllString(md, "")
	md = images.ReplaceAllString(md, "$1")
	md = links.ReplaceAllString(md, "$1")
	md = inlineCode.ReplaceAllString(md, "$1")
	md = headings.ReplaceAllString(md, "")
	md = blockquotes.ReplaceAllString(md, "")
	md = rules.ReplaceAllString(md, "")
	md = bullets.ReplaceAllString(md, "$1")
	md = numbered.ReplaceAllString(md, "$1")
	md = strong.ReplaceAllString(md, "$1")
	md = italic.ReplaceAllString(md, "$1")
	md = underscores.ReplaceAllString(md, "$1$2$3")
	return textutil.TidyLines(md)
}
