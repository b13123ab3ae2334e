// Package gateway drives documents through the processing stages and
// aggregates stage health. Stages are addressed over HTTP even when they are
// hosted in the same process, so any stage can be split out behind a URL
// change.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fhirflow/fhirflow/internal/config"
)

// Stage names, in pipeline order.
const (
	StageIngestion   = "ingestion"
	StageRecognition = "recognition"
	StageExtraction  = "extraction"
	StageValidation  = "validation"
	StageMapping     = "mapping"
)

// Stage describes one pipeline stage endpoint.
type Stage struct {
	Name string
	URL  string
	Path string
}

// StagesFromConfig builds the ordered stage descriptor list.
func StagesFromConfig(cfg *config.Config) []Stage {
	return []Stage{
		{Name: StageIngestion, URL: cfg.IngestionURL, Path: "/ingest"},
		{Name: StageRecognition, URL: cfg.RecognitionURL, Path: "/recognize"},
		{Name: StageExtraction, URL: cfg.ExtractionURL, Path: "/extract"},
		{Name: StageValidation, URL: cfg.ValidationURL, Path: "/validate"},
		{Name: StageMapping, URL: cfg.MappingURL, Path: "/map"},
	}
}

// StageError reports a stage that failed or answered with a non-2xx status.
// The pipeline stops at the first failing stage.
type StageError struct {
	Stage   string
	Status  int
	Message string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed with status %d: %s", e.Stage, e.Status, e.Message)
}

// Client is a thin HTTP client for stage calls.
type Client struct {
	http *resty.Client
}

// NewClient creates a stage client with a per-call timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// Post sends payload to one stage and returns the decoded response body.
// Transport failures surface as a 502 StageError; non-2xx answers carry the
// stage's own status and error message.
func (c *Client) Post(ctx context.Context, stage Stage, payload map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(stage.URL + stage.Path)
	if err != nil {
		return nil, &StageError{Stage: stage.Name, Status: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.IsError() {
		message := resp.Status()
		var body struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil && body.Error != "" {
			message = body.Error
		}
		return nil, &StageError{Stage: stage.Name, Status: resp.StatusCode(), Message: message}
	}

	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &StageError{Stage: stage.Name, Status: http.StatusBadGateway, Message: "invalid stage response: " + err.Error()}
	}
	return out, nil
}

// Get probes one URL, reporting only success or failure.
func (c *Client) Get(ctx context.Context, url string) error {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}
