package ingestion

// Envelope is the normalized representation of one submitted clinical
// document as it travels through the pipeline. Content carries plain text;
// FileContent carries a base64 data URL for binary image/PDF uploads.
type Envelope struct {
	DocumentID  string `json:"documentId"`
	SourceType  string `json:"sourceType"`
	ContentType string `json:"contentType"`
	DocType     string `json:"docType,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Content     string `json:"content"`
	FileName    string `json:"fileName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	FileContent string `json:"fileContent,omitempty"`
}

// HasContent reports whether the envelope carries anything to process.
func (e Envelope) HasContent() bool {
	return e.Content != "" || e.FileContent != ""
}

// Document type tags assigned by the classifier.
const (
	DocTypeLabReport        = "lab_report"
	DocTypePrescription     = "prescription"
	DocTypeDischargeSummary = "discharge_summary"
	DocTypeClinicalNote     = "clinical_note"
)
