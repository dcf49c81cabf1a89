// Package features turns raw OCR text from a lab report into the fixed
// five-value composition vector the grading paths consume.
package features

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/navodyayashodani/oilgrade/constants"
)

// Plausibility windows for candidate readings, in percent.
const (
	EugenolMin = 60.0
	EugenolMax = 98.0
	TraceMin   = 0.1
	TraceMax   = 5.0
)

// rePercentage matches the percentage format of the target lab reports:
// an integer part, a separator (dot, comma, or stray whitespace the OCR put
// in its place), and exactly two decimals.
var rePercentage = regexp.MustCompile(`(\d{1,2})[\s.,](\d{2})`)

// FeatureSet is the five named composition percentages. It is never
// partially populated: Parse either fills every field (substituting the
// documented defaults for unobserved traces) or reports no extraction.
type FeatureSet struct {
	Eugenol        float64 `json:"Eugenol_Percentage"`
	EugenylAcetate float64 `json:"Eugenyl_Acetate_Percentage"`
	Linalool       float64 `json:"Linalool_Percentage"`
	Cinnamaldehyde float64 `json:"Cinnamaldehyde_Percentage"`
	Safrole        float64 `json:"Safrole_Percentage"`
}

// Vector returns the features in the fixed order the classifier was trained
// on (constants.FeatureNames).
func (f FeatureSet) Vector() []float64 {
	return []float64{f.Eugenol, f.EugenylAcetate, f.Linalool, f.Cinnamaldehyde, f.Safrole}
}

// Map returns the features keyed by their canonical names.
func (f FeatureSet) Map() map[string]float64 {
	v := f.Vector()
	out := make(map[string]float64, len(v))
	for i, name := range constants.FeatureNames {
		out[name] = v[i]
	}
	return out
}

// Extraction is one successful OCR reading plus the evidence behind it, kept
// for the audit trail. The positional trace assignment is a heuristic; the
// ordered candidate lists let a reviewer re-check it against the document.
type Extraction struct {
	Features FeatureSet

	Tokens      []float64 // every numeric token, in document order
	Traces      []float64 // in-range trace candidates, in document order
	PaddedSlots []string  // trace names filled with defaults, not readings

	Method        string // "image-ocr" | "pdf-ocr"
	Page          int    // 1-based page that yielded the reading
	OCRConfidence float32
}

// Parse scans OCR text for percentage tokens and assembles a FeatureSet.
//
// Any value in [60, 98] is a eugenol candidate and the maximum wins (ties
// favor the most plausible purity reading). Values in [0.1, 5.0] are trace
// candidates assigned positionally, in document order, to eugenyl acetate,
// linalool, cinnamaldehyde and safrole. Missing trace slots get the
// documented domain defaults. Without at least one eugenol candidate there
// is no extraction and ok is false.
func Parse(text string) (Extraction, bool) {
	var tokens []float64
	for _, m := range rePercentage.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(fmt.Sprintf("%s.%s", m[1], m[2]), 64)
		if err != nil {
			continue
		}
		tokens = append(tokens, v)
	}

	eugenol := 0.0
	found := false
	for _, v := range tokens {
		if v >= EugenolMin && v <= EugenolMax && v > eugenol {
			eugenol = v
			found = true
		}
	}
	if !found {
		return Extraction{Tokens: tokens}, false
	}

	var traces []float64
	for _, v := range tokens {
		if v >= TraceMin && v <= TraceMax {
			traces = append(traces, v)
		}
	}

	ex := Extraction{
		Features: FeatureSet{
			Eugenol:        eugenol,
			EugenylAcetate: constants.DefaultEugenylAcetate,
			Linalool:       constants.DefaultLinalool,
			Cinnamaldehyde: constants.DefaultCinnamaldehyde,
			Safrole:        constants.DefaultSafrole,
		},
		Tokens: tokens,
		Traces: traces,
	}

	slots := []struct {
		name string
		dst  *float64
	}{
		{"Eugenyl_Acetate_Percentage", &ex.Features.EugenylAcetate},
		{"Linalool_Percentage", &ex.Features.Linalool},
		{"Cinnamaldehyde_Percentage", &ex.Features.Cinnamaldehyde},
		{"Safrole_Percentage", &ex.Features.Safrole},
	}
	for i, slot := range slots {
		if i < len(traces) {
			*slot.dst = traces[i]
		} else {
			ex.PaddedSlots = append(ex.PaddedSlots, slot.name)
		}
	}
	return ex, true
}
