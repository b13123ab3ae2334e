// Package validation checks extracted fields against physiologic plausibility
// ranges. Checks never reject a document; each failure adds a warning code and
// the document continues downstream.
package validation

import "github.com/fhirflow/fhirflow/internal/domain/extraction"

// Plausibility bounds. Values outside these ranges are flagged, not dropped.
const (
	AgeMin = 0
	AgeMax = 120

	SystolicMin = 60
	SystolicMax = 250

	DiastolicMin = 30
	DiastolicMax = 150
)

// Warning codes, stable identifiers consumed by clients.
const (
	WarnAgeOutOfRange       = "age_out_of_range"
	WarnSystolicOutOfRange  = "bp_systolic_out_of_range"
	WarnDiastolicOutOfRange = "bp_diastolic_out_of_range"
	WarnLabValueNegative    = "lab_value_negative"
)

// Validate runs every plausibility check independently and returns the
// accumulated warning codes. Absent fields produce no warnings, and the
// result is never nil so it serializes as a JSON array.
func Validate(fields extraction.Fields) []string {
	warnings := make([]string, 0, 4)

	if fields.Age != nil && (*fields.Age < AgeMin || *fields.Age > AgeMax) {
		warnings = append(warnings, WarnAgeOutOfRange)
	}

	if bp := fields.BloodPressure; bp != nil {
		if bp.Systolic < SystolicMin || bp.Systolic > SystolicMax {
			warnings = append(warnings, WarnSystolicOutOfRange)
		}
		if bp.Diastolic < DiastolicMin || bp.Diastolic > DiastolicMax {
			warnings = append(warnings, WarnDiastolicOutOfRange)
		}
	}

	if fields.Lab != nil && fields.Lab.Value < 0 {
		warnings = append(warnings, WarnLabValueNegative)
	}

	return warnings
}
