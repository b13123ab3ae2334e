// Package mapping converts validated extracted fields into FHIR R4 resources.
package mapping

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Defaults applied when extraction produced no value for a field.
const (
	DefaultPatientName = "Unknown Patient"
	DefaultGender      = "unknown"
	DefaultUnit        = "unknown"
)

// Bundle is the final pipeline output for one document.
type Bundle struct {
	DocumentID  string                   `json:"documentId"`
	FHIRVersion string                   `json:"fhirVersion"`
	Warnings    []string                 `json:"warnings"`
	Resources   []map[string]interface{} `json:"resources"`
}

// MapResources builds the resource list for one document. A Patient resource
// is always emitted; Observations follow only for the fields that were
// actually extracted. Structured lab tests suppress the legacy single-lab
// observation so the same measurement is never emitted twice.
func MapResources(fields extraction.Fields, trace []extraction.TraceRef) []map[string]interface{} {
	resources := make([]map[string]interface{}, 0, 2+len(fields.LabTests))

	name := DefaultPatientName
	if fields.PatientName != nil && strings.TrimSpace(*fields.PatientName) != "" {
		name = *fields.PatientName
	}
	gender := DefaultGender
	if fields.Gender != nil && *fields.Gender != "" {
		gender = *fields.Gender
	}

	patientExts := []map[string]interface{}{fhir.TraceabilityExtension(trace, "")}
	if fields.Age != nil {
		patientExts = append(patientExts, fhir.IntExtension(fhir.ExtractedAgeURL, *fields.Age))
	}
	patient := fhir.WithExtensions(
		fhir.NewPatient("patient-"+uuid.NewString(), name, gender),
		patientExts...,
	)
	resources = append(resources, patient)

	if len(fields.LabTests) > 0 {
		// Sorted keys keep the resource order deterministic across runs.
		keys := make([]string, 0, len(fields.LabTests))
		for key := range fields.LabTests {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			lab := fields.LabTests[key]
			unit := DefaultUnit
			if lab.Unit != nil && *lab.Unit != "" {
				unit = *lab.Unit
			}
			obs := fhir.WithExtensions(
				fhir.NewObservation("obs-"+uuid.NewString(), labDisplayName(key), lab.Value, unit),
				fhir.TraceabilityExtension(trace, lab.Raw),
			)
			resources = append(resources, obs)
		}
	} else if fields.Lab != nil {
		unit := DefaultUnit
		if fields.Lab.Unit != nil && *fields.Lab.Unit != "" {
			unit = *fields.Lab.Unit
		}
		obs := fhir.WithExtensions(
			fhir.NewObservation("obs-"+uuid.NewString(), labDisplayName(fields.Lab.TestName), fields.Lab.Value, unit),
			fhir.TraceabilityExtension(trace, ""),
		)
		resources = append(resources, obs)
	}

	if bp := fields.BloodPressure; bp != nil {
		obs := fhir.WithExtensions(
			fhir.NewComponentObservation("obs-bp-"+uuid.NewString(), "Blood pressure", []fhir.Component{
				{CodeText: "Systolic blood pressure", Value: float64(bp.Systolic), Unit: bp.Unit},
				{CodeText: "Diastolic blood pressure", Value: float64(bp.Diastolic), Unit: bp.Unit},
			}),
			fhir.TraceabilityExtension(trace, ""),
		)
		resources = append(resources, obs)
	}

	return resources
}

// labDisplayName turns a snake_case lab key back into a readable code text.
func labDisplayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
