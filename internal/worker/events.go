package worker

type IngestDocumentPayload struct {
	DocumentID    int64  `json:"document_id"`
	Path          string `json:"path"`
	OriginalName  string `json:"original_name"`
	MimeType      string `json:"mime_type"`
	CorrelationID string `json:"correlation_id"`
}
