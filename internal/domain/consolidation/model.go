package consolidation

import "time"

// History caps. Each bounded list is most-recent-first and silently drops its
// oldest entries past the cap.
const (
	MaxImagesPerPatient = 5
	MaxUploads          = 100
	MaxResources        = 200
	MaxActivity         = 50
)

// PatientRecord is one consolidated patient profile. Resources hold the
// complete set from the latest processed document; Logs and Images accumulate
// across documents.
type PatientRecord struct {
	ID          string                   `json:"id"`
	DisplayName string                   `json:"displayName"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Resources   []map[string]interface{} `json:"resources"`
	Logs        []LogEntry               `json:"logs"`
	Images      []UploadImage            `json:"images"`
}

// LogEntry records one document contribution to a patient record.
type LogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	DocumentID    string    `json:"documentId"`
	Warnings      []string  `json:"warnings"`
	ResourceCount int       `json:"resourceCount"`
}

// UploadImage is one image attachment kept with a patient record.
type UploadImage struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	DataURL    string    `json:"dataUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadEntry is one row in the global upload history.
type UploadEntry struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SourceType string    `json:"sourceType"`
	DocType    string    `json:"docType"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ResourceEntry is one row in the global resource history.
type ResourceEntry struct {
	DocumentID   string                 `json:"documentId"`
	PatientName  string                 `json:"patientName"`
	ResourceID   string                 `json:"resourceId"`
	ResourceType string                 `json:"resourceType"`
	Resource     map[string]interface{} `json:"resource"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// ActivityEvent is one row in the global activity feed.
type ActivityEvent struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	PatientID   string    `json:"patientId,omitempty"`
	PatientName string    `json:"patientName,omitempty"`
	DocumentID  string    `json:"documentId"`
	Timestamp   time.Time `json:"timestamp"`
}

// Summary is the list projection of a patient record.
type Summary struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	LastUpdated   time.Time `json:"lastUpdated"`
	ResourceCount int       `json:"resourceCount"`
	DocumentCount int       `json:"documentCount"`
	ImageCount    int       `json:"imageCount"`
}

// Stats is the aggregate counters snapshot.
type Stats struct {
	Patients  int `json:"patients"`
	Uploads   int `json:"uploads"`
	Resources int `json:"resources"`
	Activity  int `json:"activity"`
}
