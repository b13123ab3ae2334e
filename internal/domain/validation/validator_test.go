package validation

import (
	"testing"

	"github.com/fhirflow/fhirflow/internal/domain/extraction"
)

func intp(v int) *int          { return &v }
func floatLab(v float64) *extraction.LegacyLab {
	return &extraction.LegacyLab{TestName: "hemoglobin", Value: v}
}

func TestValidate_CleanFieldsProduceNoWarnings(t *testing.T) {
	warnings := Validate(extraction.Fields{
		Age:           intp(45),
		BloodPressure: &extraction.BloodPressure{Systolic: 120, Diastolic: 80, Unit: "mmHg"},
		Lab:           floatLab(13.1),
	})
	if warnings == nil {
		t.Fatal("warnings must never be nil")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestValidate_EmptyFields(t *testing.T) {
	warnings := Validate(extraction.Fields{})
	if warnings == nil || len(warnings) != 0 {
		t.Errorf("expected empty warning list for empty fields, got %v", warnings)
	}
}

func TestValidate_AllChecksFireIndependently(t *testing.T) {
	warnings := Validate(extraction.Fields{
		Age:           intp(150),
		BloodPressure: &extraction.BloodPressure{Systolic: 300, Diastolic: 200, Unit: "mmHg"},
		Lab:           floatLab(-1),
	})
	want := []string{
		WarnAgeOutOfRange,
		WarnSystolicOutOfRange,
		WarnDiastolicOutOfRange,
		WarnLabValueNegative,
	}
	if len(warnings) != len(want) {
		t.Fatalf("expected %d warnings, got %v", len(want), warnings)
	}
	for i, code := range want {
		if warnings[i] != code {
			t.Errorf("warning %d: expected %s, got %s", i, code, warnings[i])
		}
	}
}

func TestValidate_BoundaryValuesPass(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields extraction.Fields
	}{
		{"age at max", extraction.Fields{Age: intp(120)}},
		{"age at min", extraction.Fields{Age: intp(0)}},
		{"bp at bounds", extraction.Fields{BloodPressure: &extraction.BloodPressure{Systolic: 250, Diastolic: 30}}},
		{"lab at zero", extraction.Fields{Lab: floatLab(0)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if warnings := Validate(tc.fields); len(warnings) != 0 {
				t.Errorf("expected no warnings, got %v", warnings)
			}
		})
	}
}

func TestValidate_SystolicOnlyOutOfRange(t *testing.T) {
	warnings := Validate(extraction.Fields{
		BloodPressure: &extraction.BloodPressure{Systolic: 40, Diastolic: 80},
	})
	if len(warnings) != 1 || warnings[0] != WarnSystolicOutOfRange {
		t.Errorf("expected only systolic warning, got %v", warnings)
	}
}
