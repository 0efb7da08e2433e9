package domain

// RawDocument is the file content handed to a normaliser.
type RawDocument struct {
	// RecordID links to the FileRecord being ingested.
	RecordID string

	// URI is the file location.
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata carries ingestion hints such as the title or description.
	Metadata map[string]any
}

// Title returns the title hint from metadata, if any.
func (r *RawDocument) Title() string {
	if r.Metadata == nil {
		return ""
	}
	title, _ := r.Metadata["title"].(string)
	return title
}
