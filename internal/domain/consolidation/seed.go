package consolidation

import (
	"github.com/google/uuid"

	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/domain/mapping"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

type seedPatient struct {
	name       string
	gender     string
	age        int
	hemoglobin float64
}

var seedPatients = []seedPatient{
	{name: "Aarav Shah", gender: "male", age: 34, hemoglobin: 14.2},
	{name: "Isha Verma", gender: "female", age: 29, hemoglobin: 12.8},
	{name: "Rohan Iyer", gender: "male", age: 41, hemoglobin: 15.1},
}

// SeedDemo loads the demo patients. Existing keys are skipped, so seeding is
// idempotent and never clobbers records built from real documents.
func (s *Store) SeedDemo() {
	for _, p := range seedPatients {
		key := NormalizeKey(p.name)
		if _, err := s.Get(key); err == nil {
			continue
		}

		docID := "seed-" + uuid.NewString()
		patient := fhir.WithExtensions(
			fhir.NewPatient("patient-"+uuid.NewString(), p.name, p.gender),
			fhir.IntExtension(fhir.ExtractedAgeURL, p.age),
		)
		obs := fhir.NewObservation("obs-"+uuid.NewString(), "hemoglobin", p.hemoglobin, "g/dL")

		s.Upsert(mapping.Bundle{
			DocumentID:  docID,
			FHIRVersion: fhir.Version,
			Warnings:    []string{},
			Resources:   []map[string]interface{}{patient, obs},
		}, ingestion.Envelope{DocumentID: docID, SourceType: "seed"})
	}
	s.log.Info().Int("patients", len(seedPatients)).Msg("demo patients seeded")
}
