// Package eml normalises RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles EML (email) documents.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise indexes the main headers followed by the message body,
// preferring text/plain parts over HTML ones. The subject is the title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse email: %w", domain.ErrInvalidInput)
	}

	headers := make(map[string]string, 4)
	var content strings.Builder
	for _, name := range []string{"From", "To", "Date", "Subject"} {
		value := decodeHeader(msg.Header.Get(name))
		if value == "" {
			continue
		}
		headers[strings.ToLower(name)] = value
		fmt.Fprintf(&content, "%s: %s\n", name, value)
	}

	body, err := partText(msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, err
	}
	content.WriteString("\n")
	content.WriteString(body)

	result := textutil.Result(raw, "eml", textutil.Title(raw, headers["subject"]), strings.TrimSpace(content.String()))
	for _, key := range []string{"from", "to", "date"} {
		if v, ok := headers[key]; ok {
			result.Document.Metadata[key] = v
		}
	}
	return result, nil
}

func decodeHeader(header string) string {
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return strings.TrimSpace(decoded)
}

// partText returns the text of a single MIME entity. Multipart entities
// are searched recursively.
func partText(contentType, encoding string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartText(body, params["boundary"])
	}

	data, err := io.ReadAll(decodeTransfer(encoding, body))
	if err != nil {
		return "", fmt.Errorf("read email body: %w", err)
	}
	switch mediaType {
	case "text/html":
		return textutil.HTMLToText(string(data)), nil
	case "text/plain":
		return textutil.TidyLines(string(data)), nil
	default:
		return "", nil
	}
}

func multipartText(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, html []string
	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Truncated messages keep whatever parts were readable.
			break
		}
		if part.FileName() != "" {
			continue
		}

		// NextPart already removed quoted-printable encoding.
		partType := part.Header.Get("Content-Type")
		text, err := partText(partType, part.Header.Get("Content-Transfer-Encoding"), part)
		if err != nil || text == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(partType), "text/html") {
			html = append(html, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n\n"), nil
	}
	return strings.Join(html, "\n\n"), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
