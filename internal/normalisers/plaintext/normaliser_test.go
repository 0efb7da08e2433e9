package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/plain")
	assert.Contains(t, n.SupportedMIMETypes(), "application/json")
	assert.Equal(t, 5, n.Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		RecordID: "rec-1",
		URI:      "/ws/notes/shopping_list.txt",
		MIMEType: "text/plain",
		Content:  []byte("\xEF\xBB\xBFeggs\r\nmilk\r\n"),
		Metadata: map[string]any{"title": "shopping list.txt"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "rec-1", doc.RecordID)
	assert.Equal(t, "/ws/notes/shopping_list.txt", doc.URI)
	assert.Equal(t, "shopping list.txt", doc.Title)
	assert.Equal(t, "eggs\nmilk", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "plaintext", doc.Metadata["format"])
}

func TestNormalise_InvalidUTF8IsReplaced(t *testing.T) {
	raw := &domain.RawDocument{URI: "/ws/latin1.txt", Content: []byte("caf\xe9")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "caf�", result.Document.Content)
	assert.Equal(t, "latin1", result.Document.Title)
}

func TestNormalise_Errors(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{Content: []byte("PK\x03\x04\x00\x00")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
