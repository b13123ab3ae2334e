// Package ingestion normalizes incoming document envelopes and assigns each
// one a coarse document-type tag by keyword matching.
package ingestion

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingContent is returned when an envelope carries neither raw text nor
// a binary payload.
var ErrMissingContent = errors.New("content or fileContent is required")

// DetectDocType chooses a document-type tag by case-insensitive keyword
// search over the content-type hint and the raw text, in priority order.
func DetectDocType(contentType, content string) string {
	text := strings.ToLower(contentType + " " + content)
	switch {
	case strings.Contains(text, "lab"):
		return DocTypeLabReport
	case strings.Contains(text, "prescription"), strings.Contains(text, "rx"):
		return DocTypePrescription
	case strings.Contains(text, "discharge"):
		return DocTypeDischargeSummary
	default:
		return DocTypeClinicalNote
	}
}

// Classify validates and normalizes an envelope: missing identifiers and
// source tags get deterministic defaults, and DocType is assigned. The input
// is not mutated.
func Classify(env Envelope) (Envelope, error) {
	if !env.HasContent() {
		return env, ErrMissingContent
	}

	if env.DocumentID == "" {
		env.DocumentID = "doc-" + uuid.NewString()
	}
	if env.SourceType == "" {
		env.SourceType = "unknown"
	}
	if env.ContentType == "" {
		env.ContentType = "unknown"
	}
	if env.Pages == 0 {
		env.Pages = 1
	}
	env.DocType = DetectDocType(env.ContentType, env.Content)

	return env, nil
}
