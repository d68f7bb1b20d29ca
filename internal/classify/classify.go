// Package classify assigns a model.DocType to OCR text via lexical keyword
// scoring, grounded on the per-type pattern table shape in the pack's
// mlclassifier document classifier (there implemented with weighted
// regexes for a general rule engine; spec.md calls for a simpler literal
// substring count, which plain strings.Count serves exactly).
package classify

import (
	"strings"

	"github.com/adverant/legalextract/internal/model"
)

// order is the tie-break order spec.md §4.4 mandates.
var order = []model.DocType{
	model.DocMedical,
	model.DocPleading,
	model.DocPolice,
	model.DocTranscript,
	model.DocInsuranceEOB,
	model.DocImaging,
}

var vocabulary = map[model.DocType][]string{
	model.DocMedical: {
		"diagnosis", "treatment", "medication", "mrn", "cpt", "icd",
		"history of present illness", "patient", "physician", "prescribed",
	},
	model.DocPleading: {
		"plaintiff", "defendant", "index no", "caption", "complaint",
		"cause of action", "hereby", "supreme court", "county of",
	},
	model.DocPolice: {
		"incident report", "officer", "badge", "arresting", "violation",
		"police department", "report number", "dispatched",
	},
	model.DocTranscript: {
		"q:", "a:", "deposition", "witness", "sworn", "transcript", "reporter",
	},
	model.DocInsuranceEOB: {
		"explanation of benefits", "eob", "allowed amount", "denied amount",
		"claim number", "payer", "adjustment", "member id",
	},
	model.DocImaging: {
		"impression", "findings", "radiology", "mri", "ct scan", "x-ray",
		"ultrasound", "study date", "contrast",
	},
}

// Keywords returns the vocabulary for a DocType, used by the snippet
// selector to find keyword-window hits for the same type the classifier
// chose.
func Keywords(t model.DocType) []string {
	return vocabulary[t]
}

// Classify scores each DocType by case-insensitive substring hit count and
// returns the highest scorer, breaking ties by the fixed order above.
// Returns UNKNOWN when every score is zero.
func Classify(text string) model.DocType {
	lower := strings.ToLower(text)

	best := model.DocUnknown
	bestScore := 0
	for _, t := range order {
		score := 0
		for _, kw := range vocabulary[t] {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	return best
}
