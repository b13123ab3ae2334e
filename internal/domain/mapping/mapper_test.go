package mapping

import (
	"strings"
	"testing"

	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

var demoTrace = []extraction.TraceRef{{SegmentID: "doc-1-seg-1", Confidence: 0.93, Page: 1}}

func observations(resources []map[string]interface{}) []map[string]interface{} {
	var obs []map[string]interface{}
	for _, r := range resources {
		if fhir.ResourceType(r) == "Observation" {
			obs = append(obs, r)
		}
	}
	return obs
}

func TestMapResources_PatientAlwaysEmitted(t *testing.T) {
	resources := MapResources(extraction.Fields{}, nil)
	if len(resources) != 1 {
		t.Fatalf("expected only a Patient, got %d resources", len(resources))
	}
	patient := resources[0]
	if fhir.ResourceType(patient) != "Patient" {
		t.Fatalf("expected Patient, got %s", fhir.ResourceType(patient))
	}
	if got := fhir.PatientDisplayName(patient); got != DefaultPatientName {
		t.Errorf("expected default name, got %q", got)
	}
	if patient["gender"] != DefaultGender {
		t.Errorf("expected default gender, got %v", patient["gender"])
	}
	id, _ := patient["id"].(string)
	if !strings.HasPrefix(id, "patient-") {
		t.Errorf("expected patient- id prefix, got %q", id)
	}
	if _, ok := patient["extension"]; !ok {
		t.Error("expected traceability extension on Patient")
	}
}

func TestMapResources_AgeExtension(t *testing.T) {
	resources := MapResources(extraction.Fields{Age: intp(45)}, demoTrace)
	exts, _ := resources[0]["extension"].([]interface{})
	if len(exts) != 2 {
		t.Fatalf("expected traceability + age extensions, got %d", len(exts))
	}
	age, _ := exts[1].(map[string]interface{})
	if age["url"] != fhir.ExtractedAgeURL || age["valueInteger"] != 45 {
		t.Errorf("unexpected age extension %v", age)
	}
}

func TestMapResources_StructuredLabs(t *testing.T) {
	unit := "g/dL"
	fields := extraction.Fields{
		LabTests: map[string]extraction.LabResult{
			"hemoglobin":       {Value: 13.1, Unit: &unit, Raw: "Lab: Hemoglobin 13.1 g/dL"},
			"white_cell_count": {Value: 6.1},
		},
		Lab: &extraction.LegacyLab{TestName: "hemoglobin", Value: 13.1, Unit: &unit},
	}
	resources := MapResources(fields, demoTrace)

	obs := observations(resources)
	if len(obs) != 2 {
		t.Fatalf("structured labs must suppress the legacy observation: got %d observations", len(obs))
	}
	// Sorted by key: hemoglobin before white_cell_count.
	first, _ := obs[0]["code"].(map[string]interface{})
	if first["text"] != "hemoglobin" {
		t.Errorf("expected hemoglobin first, got %v", first["text"])
	}
	second, _ := obs[1]["code"].(map[string]interface{})
	if second["text"] != "white cell count" {
		t.Errorf("expected underscores replaced, got %v", second["text"])
	}
	vq, _ := obs[1]["valueQuantity"].(map[string]interface{})
	if vq["unit"] != DefaultUnit {
		t.Errorf("expected unit fallback %q, got %v", DefaultUnit, vq["unit"])
	}
	exts, _ := obs[0]["extension"].([]interface{})
	if len(exts) != 1 {
		t.Fatalf("expected traceability extension, got %d", len(exts))
	}
	ext, _ := exts[0].(map[string]interface{})
	raw, _ := ext["valueString"].(string)
	if !strings.Contains(raw, "Lab: Hemoglobin 13.1 g/dL") {
		t.Errorf("expected raw source line in traceability payload, got %s", raw)
	}
}

func TestMapResources_LegacyLabOnly(t *testing.T) {
	resources := MapResources(extraction.Fields{
		Lab: &extraction.LegacyLab{TestName: "hemoglobin", Value: 12.8},
	}, demoTrace)
	obs := observations(resources)
	if len(obs) != 1 {
		t.Fatalf("expected single legacy observation, got %d", len(obs))
	}
	vq, _ := obs[0]["valueQuantity"].(map[string]interface{})
	if vq["value"] != 12.8 || vq["unit"] != DefaultUnit {
		t.Errorf("unexpected valueQuantity %v", vq)
	}
}

func TestMapResources_BloodPressureComponents(t *testing.T) {
	resources := MapResources(extraction.Fields{
		BloodPressure: &extraction.BloodPressure{Systolic: 120, Diastolic: 80, Unit: "mmHg"},
	}, demoTrace)
	obs := observations(resources)
	if len(obs) != 1 {
		t.Fatalf("expected one BP observation, got %d", len(obs))
	}
	id, _ := obs[0]["id"].(string)
	if !strings.HasPrefix(id, "obs-bp-") {
		t.Errorf("expected obs-bp- id prefix, got %q", id)
	}
	comps, _ := obs[0]["component"].([]interface{})
	if len(comps) != 2 {
		t.Fatalf("expected systolic + diastolic components, got %d", len(comps))
	}
	sys, _ := comps[0].(map[string]interface{})
	vq, _ := sys["valueQuantity"].(map[string]interface{})
	if vq["value"] != 120.0 || vq["unit"] != "mmHg" {
		t.Errorf("unexpected systolic component %v", vq)
	}
	if _, ok := obs[0]["valueQuantity"]; ok {
		t.Error("component observation must not carry a top-level valueQuantity")
	}
}

func TestMapResources_EveryResourceCarriesTraceability(t *testing.T) {
	unit := "g/dL"
	resources := MapResources(extraction.Fields{
		PatientName:   strp("Jane Doe"),
		Age:           intp(45),
		Gender:        strp("female"),
		BloodPressure: &extraction.BloodPressure{Systolic: 120, Diastolic: 80, Unit: "mmHg"},
		LabTests:      map[string]extraction.LabResult{"hemoglobin": {Value: 13.1, Unit: &unit, Raw: "x"}},
	}, demoTrace)

	if len(resources) != 3 {
		t.Fatalf("expected Patient + lab + BP, got %d", len(resources))
	}
	for i, r := range resources {
		exts, _ := r["extension"].([]interface{})
		found := false
		for _, e := range exts {
			ext, _ := e.(map[string]interface{})
			if ext["url"] == fhir.TraceabilityURL {
				found = true
			}
		}
		if !found {
			t.Errorf("resource %d (%s) missing traceability extension", i, fhir.ResourceType(r))
		}
	}
}
