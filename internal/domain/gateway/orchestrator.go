package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/consolidation"
	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/domain/mapping"
)

// Orchestrator runs a document through every stage in order and consolidates
// the result into the patient store.
type Orchestrator struct {
	stages []Stage
	client *Client
	store  *consolidation.Store
	log    zerolog.Logger
}

// NewOrchestrator creates an orchestrator over the given stage list.
func NewOrchestrator(stages []Stage, client *Client, store *consolidation.Store, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		stages: stages,
		client: client,
		store:  store,
		log:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run processes one document. The upload is recorded before the first stage
// call; a stage failure aborts the fold and nothing reaches the patient
// store. Each stage's response body becomes the next stage's request body.
func (o *Orchestrator) Run(ctx context.Context, env ingestion.Envelope) (mapping.Bundle, *consolidation.PatientRecord, error) {
	if !env.HasContent() {
		return mapping.Bundle{}, nil, ingestion.ErrMissingContent
	}
	if env.DocumentID == "" {
		env.DocumentID = "doc-" + uuid.NewString()
	}

	o.store.RecordUpload(env)

	payload, err := toPayload(env)
	if err != nil {
		return mapping.Bundle{}, nil, fmt.Errorf("encode document: %w", err)
	}

	for _, stage := range o.stages {
		out, err := o.client.Post(ctx, stage, payload)
		if err != nil {
			o.log.Error().Err(err).
				Str("document_id", env.DocumentID).
				Str("stage", stage.Name).
				Msg("pipeline aborted")
			return mapping.Bundle{}, nil, err
		}
		o.log.Debug().
			Str("document_id", env.DocumentID).
			Str("stage", stage.Name).
			Msg("stage completed")
		payload = out
	}

	var bundle mapping.Bundle
	if err := fromPayload(payload, &bundle); err != nil {
		return mapping.Bundle{}, nil, fmt.Errorf("decode mapped output: %w", err)
	}

	record := o.store.Upsert(bundle, env)
	o.store.RecordResources(bundle, record.DisplayName)

	o.log.Info().
		Str("document_id", bundle.DocumentID).
		Str("patient_id", record.ID).
		Int("resources", len(bundle.Resources)).
		Msg("document processed")

	return bundle, record, nil
}

// toPayload converts a typed value into the generic map shape the stage
// calls fold over.
func toPayload(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromPayload(payload map[string]interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
