package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/consolidation"
	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/domain/mapping"
	"github.com/fhirflow/fhirflow/internal/domain/recognition"
	"github.com/fhirflow/fhirflow/internal/domain/validation"
)

// newStageServer hosts every pipeline stage on one httptest server, the same
// way the production binary hosts them on one echo instance.
func newStageServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	log := zerolog.Nop()
	ingestion.NewHandler(log).RegisterRoutes(e)
	recognition.NewHandler(recognition.NewRecognizer(nil), log).RegisterRoutes(e)
	extraction.NewHandler(log).RegisterRoutes(e)
	validation.NewHandler(log).RegisterRoutes(e)
	mapping.NewHandler(log).RegisterRoutes(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func stagesFor(url string) []Stage {
	return []Stage{
		{Name: StageIngestion, URL: url, Path: "/ingest"},
		{Name: StageRecognition, URL: url, Path: "/recognize"},
		{Name: StageExtraction, URL: url, Path: "/extract"},
		{Name: StageValidation, URL: url, Path: "/validate"},
		{Name: StageMapping, URL: url, Path: "/map"},
	}
}

func newOrchestrator(t *testing.T, url string) (*Orchestrator, *consolidation.Store) {
	t.Helper()
	store := consolidation.NewStore(zerolog.Nop())
	client := NewClient(5 * time.Second)
	return NewOrchestrator(stagesFor(url), client, store, zerolog.Nop()), store
}

func TestRun_EndToEnd(t *testing.T) {
	srv := newStageServer(t)
	o, store := newOrchestrator(t, srv.URL)

	bundle, record, err := o.Run(context.Background(), ingestion.Envelope{
		DocumentID: "doc-e2e",
		Content:    "Patient: Jane Doe\nAge: 45\nGender: female\nBP: 120/80 mmHg\nLab: Hemoglobin 13.1 g/dL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.DocumentID != "doc-e2e" || bundle.FHIRVersion != "R4" {
		t.Errorf("unexpected bundle header %s/%s", bundle.DocumentID, bundle.FHIRVersion)
	}
	// Patient + hemoglobin observation + BP observation.
	if len(bundle.Resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(bundle.Resources))
	}
	if len(bundle.Warnings) != 0 {
		t.Errorf("expected no warnings for plausible values, got %v", bundle.Warnings)
	}

	if record.ID != "jane doe" || record.DisplayName != "Jane Doe" {
		t.Errorf("unexpected patient record %s/%s", record.ID, record.DisplayName)
	}
	if len(record.Logs) != 1 || record.Logs[0].ResourceCount != 3 {
		t.Errorf("unexpected log %+v", record.Logs)
	}

	if got := len(store.Uploads()); got != 1 {
		t.Errorf("expected 1 upload entry, got %d", got)
	}
	if got := len(store.Resources()); got != 3 {
		t.Errorf("expected 3 global resource entries, got %d", got)
	}
}

func TestRun_MissingContent(t *testing.T) {
	srv := newStageServer(t)
	o, store := newOrchestrator(t, srv.URL)

	_, _, err := o.Run(context.Background(), ingestion.Envelope{DocumentID: "doc-1"})
	if !errors.Is(err, ingestion.ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent, got %v", err)
	}
	if len(store.Uploads()) != 0 {
		t.Error("empty document must not be recorded as an upload")
	}
}

func TestRun_AssignsDocumentID(t *testing.T) {
	srv := newStageServer(t)
	o, _ := newOrchestrator(t, srv.URL)

	bundle, _, err := o.Run(context.Background(), ingestion.Envelope{Content: "Patient: Jane Doe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(bundle.DocumentID, "doc-") {
		t.Errorf("expected generated doc- id, got %q", bundle.DocumentID)
	}
}

func TestRun_StageFailureAborts(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"recognizer offline"}`))
	}))
	defer failing.Close()

	healthy := newStageServer(t)
	stages := stagesFor(healthy.URL)
	stages[1].URL = failing.URL

	store := consolidation.NewStore(zerolog.Nop())
	o := NewOrchestrator(stages, NewClient(5*time.Second), store, zerolog.Nop())

	_, _, err := o.Run(context.Background(), ingestion.Envelope{DocumentID: "doc-1", Content: "x"})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageRecognition || stageErr.Status != http.StatusServiceUnavailable {
		t.Errorf("unexpected stage error %+v", stageErr)
	}
	if !strings.Contains(stageErr.Message, "recognizer offline") {
		t.Errorf("expected upstream error message, got %q", stageErr.Message)
	}

	// Upload is recorded at submission, but nothing reaches consolidation.
	if len(store.Uploads()) != 1 {
		t.Errorf("expected 1 upload entry, got %d", len(store.Uploads()))
	}
	if len(store.List()) != 0 || len(store.Resources()) != 0 {
		t.Error("failed pipeline must not touch the patient store")
	}
}

func TestRun_TransportFailure(t *testing.T) {
	store := consolidation.NewStore(zerolog.Nop())
	o := NewOrchestrator(stagesFor("http://127.0.0.1:1"), NewClient(time.Second), store, zerolog.Nop())

	_, _, err := o.Run(context.Background(), ingestion.Envelope{Content: "x"})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageIngestion || stageErr.Status != http.StatusBadGateway {
		t.Errorf("unexpected stage error %+v", stageErr)
	}
}

func TestRun_Resubmission(t *testing.T) {
	srv := newStageServer(t)
	o, store := newOrchestrator(t, srv.URL)

	doc := ingestion.Envelope{DocumentID: "doc-1", Content: "Patient: Jane Doe\nAge: 45"}
	if _, _, err := o.Run(context.Background(), doc); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := o.Run(context.Background(), doc); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(store.List()) != 1 {
		t.Fatalf("expected one consolidated record, got %d", len(store.List()))
	}
	record, _ := store.Get("jane doe")
	if len(record.Logs) != 2 {
		t.Errorf("expected both submissions logged, got %d", len(record.Logs))
	}
}

func TestProbe_AllHealthy(t *testing.T) {
	srv := newStageServer(t)
	a := NewHealthAggregator(stagesFor(srv.URL), NewClient(5*time.Second), time.Second, zerolog.Nop())

	results := a.Probe(context.Background())
	if len(results) != 5 {
		t.Fatalf("expected 5 probe results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK {
			t.Errorf("expected %s healthy", r.Name)
		}
	}
	if results[0].Name != StageIngestion || results[4].Name != StageMapping {
		t.Errorf("expected stage order preserved, got %v", results)
	}
}

func TestProbe_PartialFailure(t *testing.T) {
	srv := newStageServer(t)
	stages := stagesFor(srv.URL)
	stages[2].URL = "http://127.0.0.1:1"

	a := NewHealthAggregator(stages, NewClient(5*time.Second), time.Second, zerolog.Nop())
	results := a.Probe(context.Background())
	if len(results) != 5 {
		t.Fatalf("expected 5 probe results, got %d", len(results))
	}
	for i, r := range results {
		wantOK := i != 2
		if r.OK != wantOK {
			t.Errorf("stage %s: expected ok=%v, got %v", r.Name, wantOK, r.OK)
		}
	}
}
