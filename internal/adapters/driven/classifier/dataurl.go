package classifier

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// parseDataURL decodes a base64 data URL into its MIME type and payload.
func parseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL: %w", domain.ErrInvalidInput)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload: %w", domain.ErrInvalidInput)
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded: %w", domain.ErrInvalidInput)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", domain.ErrInvalidInput)
	}
	return mimeType, data, nil
}
