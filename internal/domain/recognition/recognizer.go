// Package recognition converts a document envelope into an ordered,
// confidence-scored sequence of text lines. Plain text passes through
// unchanged; binary payloads go through PDF text extraction or image
// recognition. When no text can be produced the recognizer substitutes a
// fixed placeholder sample so the pipeline never stalls on unreadable input;
// the mode tag tells downstream consumers which path produced the text.
package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
)

// Recognition mode tags.
const (
	ModeText        = "text"
	ModePDF         = "pdf"
	ModeOCR         = "ocr"
	ModePlaceholder = "placeholder"
)

// Confidence assigned per segment. Binary-derived text scores lower than
// direct text input. Informational only; nothing downstream gates on it.
const (
	ConfidenceText   = 0.93
	ConfidenceBinary = 0.85
)

// PlaceholderSample is the deterministic text substituted when recognition
// yields nothing. Trades correctness for availability; mode "placeholder"
// keeps the substitution visible downstream.
const PlaceholderSample = "Patient: Jane Doe\nAge: 45\nGender: female\nBP: 120/80 mmHg\nLab: Hemoglobin 13.1 g/dL"

// Segment is one recognized line of text.
type Segment struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}

// Result is the recognition stage output.
type Result struct {
	DocumentID string    `json:"documentId"`
	DocType    string    `json:"docType"`
	Segments   []Segment `json:"textSegments"`
	Mode       string    `json:"ocrMode"`
	FileName   string    `json:"fileName,omitempty"`
}

// DecodeError reports a binary payload that could not be decoded or parsed.
// It maps to a server error, unlike the absence of text, which never fails.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode payload: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// ImageRecognizer extracts text from an image payload. The default
// implementation produces no text, which routes image uploads to the
// placeholder sample; swap in a real OCR backend to change that.
type ImageRecognizer interface {
	RecognizeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

type noopImageRecognizer struct{}

func (noopImageRecognizer) RecognizeImage(context.Context, []byte, string) (string, error) {
	return "", nil
}

// Recognizer turns envelopes into text segments.
type Recognizer struct {
	images ImageRecognizer
}

// NewRecognizer creates a Recognizer. A nil ImageRecognizer falls back to the
// no-op implementation.
func NewRecognizer(images ImageRecognizer) *Recognizer {
	if images == nil {
		images = noopImageRecognizer{}
	}
	return &Recognizer{images: images}
}

// Recognize produces the segment list for an envelope.
func (r *Recognizer) Recognize(ctx context.Context, env ingestion.Envelope) (Result, error) {
	if !env.HasContent() {
		return Result{}, ingestion.ErrMissingContent
	}

	binary := env.FileContent != "" ||
		strings.Contains(env.MimeType, "pdf") ||
		strings.HasPrefix(env.MimeType, "image/")

	text := env.Content
	mode := ModeText

	if env.FileContent != "" {
		data, err := decodePayload(env.FileContent)
		if err != nil {
			return Result{}, &DecodeError{Err: err}
		}
		switch {
		case strings.Contains(env.MimeType, "pdf"):
			text, err = extractPDFText(data)
			if err != nil {
				return Result{}, &DecodeError{Err: err}
			}
			mode = ModePDF
		case strings.HasPrefix(env.MimeType, "image/"):
			text, err = r.images.RecognizeImage(ctx, data, env.MimeType)
			if err != nil {
				return Result{}, &DecodeError{Err: err}
			}
			mode = ModeOCR
		}
	}

	if strings.TrimSpace(text) == "" {
		text = PlaceholderSample
		mode = ModePlaceholder
	}

	confidence := ConfidenceText
	if binary {
		confidence = ConfidenceBinary
	}

	docID := env.DocumentID
	if docID == "" {
		docID = "doc"
	}

	var segments []Segment
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		segments = append(segments, Segment{
			ID:         fmt.Sprintf("%s-seg-%d", docID, len(segments)+1),
			Text:       line,
			Confidence: confidence,
			Page:       1,
		})
	}

	return Result{
		DocumentID: env.DocumentID,
		DocType:    env.DocType,
		Segments:   segments,
		Mode:       mode,
		FileName:   env.FileName,
	}, nil
}

// decodePayload decodes a base64 payload, tolerating a data-URL prefix
// ("data:<mime>;base64,<payload>").
func decodePayload(payload string) ([]byte, error) {
	if idx := strings.LastIndex(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return data, nil
}
