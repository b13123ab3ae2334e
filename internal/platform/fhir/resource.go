// Package fhir provides construction helpers for the FHIR R4 resource maps
// emitted by the mapping stage. Resources are plain map[string]interface{}
// values; once built they are treated as immutable by every consumer.
package fhir

import "encoding/json"

// Version is the FHIR release the mapper targets.
const Version = "R4"

// TraceabilityURL identifies the extension that links a resource back to the
// recognized text segments it was derived from.
const TraceabilityURL = "traceability"

// ExtractedAgeURL identifies the extension carrying the heuristically
// extracted age on a Patient resource.
const ExtractedAgeURL = "extracted-age"

// NewPatient builds a Patient resource with a single text name.
func NewPatient(id, name, gender string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Patient",
		"id":           id,
		"name":         []interface{}{map[string]interface{}{"text": name}},
		"gender":       gender,
	}
}

// NewObservation builds a final-status Observation with a valueQuantity.
func NewObservation(id, codeText string, value float64, unit string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Observation",
		"id":           id,
		"status":       "final",
		"code":         map[string]interface{}{"text": codeText},
		"valueQuantity": map[string]interface{}{
			"value": value,
			"unit":  unit,
		},
	}
}

// Component is one sub-component of a multi-component Observation, such as
// the systolic half of a blood pressure reading.
type Component struct {
	CodeText string
	Value    float64
	Unit     string
}

// NewComponentObservation builds a final-status Observation whose values live
// in component entries rather than a top-level valueQuantity.
func NewComponentObservation(id, codeText string, components []Component) map[string]interface{} {
	comps := make([]interface{}, len(components))
	for i, c := range components {
		comps[i] = map[string]interface{}{
			"code": map[string]interface{}{"text": c.CodeText},
			"valueQuantity": map[string]interface{}{
				"value": c.Value,
				"unit":  c.Unit,
			},
		}
	}
	return map[string]interface{}{
		"resourceType": "Observation",
		"id":           id,
		"status":       "final",
		"code":         map[string]interface{}{"text": codeText},
		"component":    comps,
	}
}

// TraceabilityExtension serializes the trace (and optionally the raw source
// line) into a valueString extension. Serialization failures degrade to an
// empty JSON object rather than dropping the extension.
func TraceabilityExtension(trace interface{}, raw string) map[string]interface{} {
	payload := map[string]interface{}{"trace": trace}
	if raw != "" {
		payload["raw"] = raw
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return map[string]interface{}{
		"url":         TraceabilityURL,
		"valueString": string(data),
	}
}

// IntExtension builds a valueInteger extension.
func IntExtension(url string, value int) map[string]interface{} {
	return map[string]interface{}{
		"url":          url,
		"valueInteger": value,
	}
}

// WithExtensions attaches extensions to a resource and returns it.
func WithExtensions(resource map[string]interface{}, exts ...map[string]interface{}) map[string]interface{} {
	if len(exts) == 0 {
		return resource
	}
	list := make([]interface{}, len(exts))
	for i, e := range exts {
		list[i] = e
	}
	resource["extension"] = list
	return resource
}

// ResourceType returns the resourceType field of a resource map, or "".
func ResourceType(resource map[string]interface{}) string {
	rt, _ := resource["resourceType"].(string)
	return rt
}

// PatientDisplayName digs the first name.text out of a Patient resource,
// returning "" when absent.
func PatientDisplayName(resource map[string]interface{}) string {
	names, _ := resource["name"].([]interface{})
	if len(names) == 0 {
		return ""
	}
	first, _ := names[0].(map[string]interface{})
	text, _ := first["text"].(string)
	return text
}

// ErrorBody is the JSON error envelope every stage returns on failure.
func ErrorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
