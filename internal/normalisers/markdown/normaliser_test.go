package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Success(t *testing.T) {
	source := `---
tags: [work]
---
# Project Kickoff

Attendees: **Alice** and *Bob*.

## Agenda

- [x] Review the [roadmap](https://example.com/roadmap)
- Assign snake_case_owners
1. Use ` + "`make build`" + `

> Ship by Friday.

---

![diagram](arch.png)

` + "```go\nfmt.Println(\"hi\")\n```"

	raw := &domain.RawDocument{
		RecordID: "rec-1",
		URI:      "/ws/meetings/kickoff.md",
		MIMEType: "text/markdown",
		Content:  []byte(source),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Project Kickoff", doc.Title)
	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, `Project Kickoff

Attendees: Alice and Bob.

Agenda

Review the roadmap
Assign snake_case_owners
Use make build

Ship by Friday.

diagram

fmt.Println("hi")`, doc.Content)
}

func TestNormalise_TitleFallback(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "/ws/notes/todo_list.md",
		Content: []byte("## Only a subheading\n\ntext"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "todo list", result.Document.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
