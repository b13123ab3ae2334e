// Package extraction applies heuristic matchers to recognized text lines and
// produces candidate structured fields. Matchers are independent: a miss
// yields a nil field, never an error, and no matcher can abort another.
package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fhirflow/fhirflow/internal/domain/recognition"
)

var (
	patientPrefixRe = regexp.MustCompile(`(?i)^patient:\s*`)
	courtesyTitleRe = regexp.MustCompile(`(?i)^(mr\.?|ms\.?|mrs\.?|dr\.?)\s+[a-z]`)
	bracketedRe     = regexp.MustCompile(`\[.*?\]`)
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	twoCapWordsRe   = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+`)
	nameDelimiterRe = regexp.MustCompile(`\s{2,}|:|\||/`)

	ageTokenRe  = regexp.MustCompile(`(?i)age`)
	ageValueRe  = regexp.MustCompile(`\d{1,3}`)
	genderRe    = regexp.MustCompile(`(?i)/(m|f|male|female)`)
	bpLineRe    = regexp.MustCompile(`(?i)bp:?\s*\d{2,3}/\d{2,3}`)
	bpReadingRe = regexp.MustCompile(`(\d{2,3})/(\d{2,3})`)

	// Two lab patterns, tried in order per line: an uppercase test name with a
	// value and optional unit (tolerating a trailing reference range), and an
	// explicit "lab: <name> <value> <unit>" form.
	labUppercaseRe = regexp.MustCompile(`^([A-Z][A-Z\s,]+?)\s+(\d+(?:\.\d+)?)\s*([a-zA-Z/%]+)?(\s+\d|$)`)
	labPrefixRe    = regexp.MustCompile(`(?i)^lab:\s*([a-zA-Z\s]+?)\s+(\d+(?:\.\d+)?)\s*([a-zA-Z/]+)?`)

	labKeySpaceRe = regexp.MustCompile(`\s+`)
)

// nameMatcher is one rule in the patient-name fallback chain.
type nameMatcher func(lines []string) *string

// The chain is evaluated in priority order; the first rule that produces a
// name wins and later rules are not attempted.
var nameMatchers = []nameMatcher{
	matchPatientPrefix,
	matchCourtesyTitle,
	matchCapitalizedPair,
}

// Extract runs every matcher over the segment lines and assembles the
// candidate fields plus the per-segment trace.
func Extract(segments []recognition.Segment) (Fields, []TraceRef) {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		for _, line := range strings.Split(seg.Text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}

	fields := Fields{
		PatientName:   extractName(lines),
		BloodPressure: extractBloodPressure(lines),
	}
	fields.Age, fields.Gender = extractAgeGender(lines)
	fields.LabTests, fields.Lab = extractLabTests(lines)

	trace := make([]TraceRef, len(segments))
	for i, seg := range segments {
		trace[i] = TraceRef{SegmentID: seg.ID, Confidence: seg.Confidence, Page: seg.Page}
	}
	return fields, trace
}

func extractName(lines []string) *string {
	for _, match := range nameMatchers {
		if name := match(lines); name != nil {
			return name
		}
	}
	return nil
}

// matchPatientPrefix handles the "Patient: Jane Doe" form.
func matchPatientPrefix(lines []string) *string {
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "patient:") {
			name := strings.TrimSpace(patientPrefixRe.ReplaceAllString(line, ""))
			return &name
		}
	}
	return nil
}

// matchCourtesyTitle handles "Mr./Ms./Mrs./Dr. <Name>" lines, stripping
// bracketed and parenthetical annotations.
func matchCourtesyTitle(lines []string) *string {
	for _, line := range lines {
		if courtesyTitleRe.MatchString(line) {
			name := bracketedRe.ReplaceAllString(line, "")
			name = parentheticalRe.ReplaceAllString(name, "")
			name = strings.TrimSpace(name)
			return &name
		}
	}
	return nil
}

// matchCapitalizedPair takes the first line that opens with two capitalized
// words, splits it on double-space/colon/pipe/slash delimiters, and returns
// the first piece that itself opens with two capitalized words.
func matchCapitalizedPair(lines []string) *string {
	for _, line := range lines {
		if !twoCapWordsRe.MatchString(line) {
			continue
		}
		for _, part := range nameDelimiterRe.Split(line, -1) {
			part = strings.TrimSpace(part)
			if twoCapWordsRe.MatchString(part) {
				return &part
			}
		}
		return nil
	}
	return nil
}

// extractAgeGender works off the first line mentioning "age": the first 1-3
// digit run is the age, and a trailing "/M", "/F", "/male", "/female" token
// is the gender. When that misses, a "Gender: ..." line supplies the gender.
func extractAgeGender(lines []string) (*int, *string) {
	var age *int
	var gender *string

	for _, line := range lines {
		if !ageTokenRe.MatchString(line) {
			continue
		}
		if digits := ageValueRe.FindString(line); digits != "" {
			if n, err := strconv.Atoi(digits); err == nil {
				age = &n
			}
		}
		if m := genderRe.FindStringSubmatch(line); m != nil {
			g := normalizeGender(m[1])
			gender = &g
		}
		break
	}

	if gender == nil {
		for _, line := range lines {
			if strings.HasPrefix(strings.ToLower(line), "gender:") {
				g := strings.ToLower(strings.TrimSpace(line[len("gender:"):]))
				gender = &g
				break
			}
		}
	}

	return age, gender
}

func normalizeGender(token string) string {
	switch strings.ToLower(token) {
	case "m":
		return "male"
	case "f":
		return "female"
	default:
		return strings.ToLower(token)
	}
}

func extractBloodPressure(lines []string) *BloodPressure {
	for _, line := range lines {
		if !bpLineRe.MatchString(line) {
			continue
		}
		m := bpReadingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		systolic, _ := strconv.Atoi(m[1])
		diastolic, _ := strconv.Atoi(m[2])
		return &BloodPressure{Systolic: systolic, Diastolic: diastolic, Unit: "mmHg"}
	}
	return nil
}

// extractLabTests tries both lab patterns per line, first match wins. A
// candidate is accepted only when the test name is longer than 2 characters
// and the value lies in (0, 10000), which filters out page numbers, dates,
// and similar spurious numeric matches.
func extractLabTests(lines []string) (map[string]LabResult, *LegacyLab) {
	tests := make(map[string]LabResult)
	var order []string

	for _, line := range lines {
		name, value, unit, ok := matchLabLine(line)
		if !ok {
			continue
		}
		key := labKeySpaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
		if len(key) <= 2 || value <= 0 || value >= 10000 {
			continue
		}
		if _, exists := tests[key]; !exists {
			order = append(order, key)
		}
		tests[key] = LabResult{Value: value, Unit: unit, Raw: line}
	}

	if len(order) == 0 {
		return nil, nil
	}

	first := tests[order[0]]
	legacy := &LegacyLab{TestName: order[0], Value: first.Value, Unit: first.Unit}
	return tests, legacy
}

func matchLabLine(line string) (name string, value float64, unit *string, ok bool) {
	for _, re := range []*regexp.Regexp{labUppercaseRe, labPrefixRe} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return "", 0, nil, false
		}
		var u *string
		if m[3] != "" {
			token := m[3]
			u = &token
		}
		return m[1], v, u, true
	}
	return "", 0, nil, false
}
