// Package html indexes web pages by their visible text.
package html

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/normalisers/textutil"
)

var _ driven.Normaliser = Normaliser{}

// Normaliser strips markup, scripts and styles, and titles the document by
// its <title> element, falling back to the file name.
type Normaliser struct{}

func New() Normaliser { return Normaliser{} }

func (Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority beats the plaintext fallback, which also claims text/*.
func (Normaliser) Priority() int { return 50 }

func (Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	page := string(raw.Content)
	title := textutil.Title(raw, textutil.HTMLTitle(page))
	return textutil.Result(raw, "html", title, textutil.HTMLToText(page)), nil
}
