package constants

// Grade is the ordinal quality label assigned to an oil-composition report.
// The rule-based path only ever produces A through D; a model label decoder
// may map classes onto other strings.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// FeatureNames lists the five composition features in the fixed order the
// classifier was trained on.
var FeatureNames = []string{
	"Eugenol_Percentage",
	"Eugenyl_Acetate_Percentage",
	"Linalool_Percentage",
	"Cinnamaldehyde_Percentage",
	"Safrole_Percentage",
}

// Default trace percentages substituted when a report does not yield a
// reading for a trace slot. Domain averages from the training corpus.
const (
	DefaultEugenylAcetate = 0.54
	DefaultLinalool       = 1.76
	DefaultCinnamaldehyde = 0.78
	DefaultSafrole        = 0.76
)
