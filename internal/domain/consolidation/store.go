// Package consolidation keeps the in-process patient store: consolidated
// patient records keyed by a normalized display name, plus bounded global
// histories of uploads, resources, and activity.
package consolidation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/domain/mapping"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
	"github.com/fhirflow/fhirflow/pkg/boundedlist"
)

// ErrNotFound is returned when a patient id resolves to no record.
var ErrNotFound = errors.New("patient not found")

// Activity event types.
const (
	EventPatientCreated   = "patient_created"
	EventPatientUpdated   = "patient_updated"
	EventDocumentUploaded = "document_uploaded"
)

// Store is the in-process consolidation store. All state is lost on restart
// by contract.
type Store struct {
	mu      sync.Mutex
	records map[string]*PatientRecord
	order   []string

	uploads   *boundedlist.List[UploadEntry]
	resources *boundedlist.List[ResourceEntry]
	activity  *boundedlist.List[ActivityEvent]

	log zerolog.Logger
	now func() time.Time
}

// NewStore creates an empty store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		records:   make(map[string]*PatientRecord),
		uploads:   boundedlist.New[UploadEntry](MaxUploads),
		resources: boundedlist.New[ResourceEntry](MaxResources),
		activity:  boundedlist.New[ActivityEvent](MaxActivity),
		log:       logger.With().Str("component", "consolidation").Logger(),
		now:       time.Now,
	}
}

// NormalizeKey derives the identity key for a display name. Two names that
// differ only in case or surrounding whitespace consolidate into one record.
func NormalizeKey(displayName string) string {
	return strings.ToLower(strings.TrimSpace(displayName))
}

// identityKey resolves the record key for a mapped bundle: the normalized
// patient display name, or a per-document key when no usable name exists.
func identityKey(displayName, documentID string) string {
	if key := NormalizeKey(displayName); key != "" && key != NormalizeKey(mapping.DefaultPatientName) {
		return key
	}
	return "doc-" + documentID
}

// Upsert merges one mapped document into the store. The whole merge runs
// under the store lock, so two documents for the same patient can never
// interleave their updates.
func (s *Store) Upsert(bundle mapping.Bundle, env ingestion.Envelope) *PatientRecord {
	displayName := mapping.DefaultPatientName
	for _, r := range bundle.Resources {
		if fhir.ResourceType(r) == "Patient" {
			if name := fhir.PatientDisplayName(r); name != "" {
				displayName = name
			}
			break
		}
	}
	key := identityKey(displayName, bundle.DocumentID)

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	record, exists := s.records[key]
	if !exists {
		record = &PatientRecord{ID: key, DisplayName: displayName}
		s.records[key] = record
		s.order = append(s.order, key)
	}

	record.DisplayName = displayName
	record.LastUpdated = ts
	record.Resources = bundle.Resources
	record.Logs = append([]LogEntry{{
		Timestamp:     ts,
		DocumentID:    bundle.DocumentID,
		Warnings:      bundle.Warnings,
		ResourceCount: len(bundle.Resources),
	}}, record.Logs...)

	if strings.HasPrefix(env.MimeType, "image/") && env.FileContent != "" {
		record.Images = append([]UploadImage{{
			DocumentID: bundle.DocumentID,
			FileName:   env.FileName,
			MimeType:   env.MimeType,
			DataURL:    env.FileContent,
			UploadedAt: ts,
		}}, record.Images...)
		if len(record.Images) > MaxImagesPerPatient {
			record.Images = record.Images[:MaxImagesPerPatient]
		}
	}

	event := EventPatientUpdated
	message := fmt.Sprintf("Patient %s updated from document %s", displayName, bundle.DocumentID)
	if !exists {
		event = EventPatientCreated
		message = fmt.Sprintf("Patient %s created from document %s", displayName, bundle.DocumentID)
	}
	s.activity.PushFront(ActivityEvent{
		Type:        event,
		Message:     message,
		PatientID:   key,
		PatientName: displayName,
		DocumentID:  bundle.DocumentID,
		Timestamp:   ts,
	})

	s.log.Info().
		Str("patient_id", key).
		Str("document_id", bundle.DocumentID).
		Bool("created", !exists).
		Int("resources", len(bundle.Resources)).
		Msg("patient record upserted")

	return record.clone()
}

// Get returns a snapshot of one patient record.
func (s *Store) Get(id string) (*PatientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.clone(), nil
}

// List returns patient summaries in insertion order.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.order))
	for _, key := range s.order {
		r := s.records[key]
		out = append(out, Summary{
			ID:            r.ID,
			DisplayName:   r.DisplayName,
			LastUpdated:   r.LastUpdated,
			ResourceCount: len(r.Resources),
			DocumentCount: len(r.Logs),
			ImageCount:    len(r.Images),
		})
	}
	return out
}

// ClearImages drops the image history of one patient record and touches its
// timestamp, so list views reflect the change.
func (s *Store) ClearImages(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.Images = nil
	record.LastUpdated = s.now()
	return nil
}

// RecordUpload appends the document to the global upload history and the
// activity feed.
func (s *Store) RecordUpload(env ingestion.Envelope) UploadEntry {
	ts := s.now()
	entry := UploadEntry{
		DocumentID: env.DocumentID,
		FileName:   env.FileName,
		MimeType:   env.MimeType,
		SourceType: env.SourceType,
		DocType:    env.DocType,
		Status:     "processed",
		UploadedAt: ts,
	}
	s.uploads.PushFront(entry)
	s.activity.PushFront(ActivityEvent{
		Type:       EventDocumentUploaded,
		Message:    fmt.Sprintf("Document %s uploaded", env.DocumentID),
		DocumentID: env.DocumentID,
		Timestamp:  ts,
	})
	return entry
}

// RecordResources appends every mapped resource to the global resource
// history, newest document first.
func (s *Store) RecordResources(bundle mapping.Bundle, patientName string) {
	ts := s.now()
	entries := make([]ResourceEntry, len(bundle.Resources))
	for i, r := range bundle.Resources {
		id, _ := r["id"].(string)
		entries[i] = ResourceEntry{
			DocumentID:   bundle.DocumentID,
			PatientName:  patientName,
			ResourceID:   id,
			ResourceType: fhir.ResourceType(r),
			Resource:     r,
			CreatedAt:    ts,
		}
	}
	s.resources.PushFrontAll(entries)
}

// Uploads returns the global upload history, newest first.
func (s *Store) Uploads() []UploadEntry {
	return s.uploads.Items()
}

// Resources returns the global resource history, newest first.
func (s *Store) Resources() []ResourceEntry {
	return s.resources.Items()
}

// Activity returns up to limit events, newest first. A non-positive limit
// means the default of 20.
func (s *Store) Activity(limit int) []ActivityEvent {
	if limit <= 0 {
		limit = 20
	}
	return s.activity.First(limit)
}

// Stats returns the aggregate counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	patients := len(s.records)
	s.mu.Unlock()
	return Stats{
		Patients:  patients,
		Uploads:   s.uploads.Len(),
		Resources: s.resources.Len(),
		Activity:  s.activity.Len(),
	}
}

// clone copies the record so callers can never mutate store state through a
// returned pointer.
func (r *PatientRecord) clone() *PatientRecord {
	out := *r
	out.Resources = append([]map[string]interface{}(nil), r.Resources...)
	out.Logs = append([]LogEntry(nil), r.Logs...)
	out.Images = append([]UploadImage(nil), r.Images...)
	return &out
}
