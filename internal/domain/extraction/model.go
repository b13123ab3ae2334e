package extraction

// Fields holds the candidate structured facts pulled out of recognized text.
// Every field is optional; a matcher that finds nothing leaves its field nil.
type Fields struct {
	PatientName   *string              `json:"patientName"`
	Age           *int                 `json:"age"`
	Gender        *string              `json:"gender"`
	BloodPressure *BloodPressure       `json:"bloodPressure"`
	LabTests      map[string]LabResult `json:"labTests"`
	// Lab mirrors the first accepted lab test for consumers that predate the
	// structured LabTests mapping.
	Lab *LegacyLab `json:"lab"`
}

// BloodPressure is a systolic/diastolic reading.
type BloodPressure struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Unit      string `json:"unit"`
}

// LabResult is one accepted lab test value.
type LabResult struct {
	Value float64 `json:"value"`
	Unit  *string `json:"unit"`
	Raw   string  `json:"raw"`
}

// LegacyLab is the single-value lab projection kept for backward
// compatibility.
type LegacyLab struct {
	TestName string  `json:"testName"`
	Value    float64 `json:"value"`
	Unit     *string `json:"unit"`
}

// TraceRef points a derived fact back at one recognized text segment.
type TraceRef struct {
	SegmentID  string  `json:"segmentId"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}
