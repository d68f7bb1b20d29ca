// Package schema holds the six per-DocType function-call schemas the remote
// extractor attaches to a chat-completions request, plus the lookup that
// picks the right schema set and forced function name for a DocType.
package schema

import "github.com/adverant/legalextract/internal/model"

// FunctionDef mirrors the OpenAI chat-completions "functions" entry shape:
// a name, a description, and a JSON Schema object for parameters.
type FunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func numProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": desc}
}

func arrProp(itemType, desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": itemType},
	}
}

var confidenceProp = numProp("model's confidence in this extraction, 0 to 1")

var medicalSchema = FunctionDef{
	Name:        "extract_medical_json",
	Description: "Extract structured fields from a medical record.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"patient_name":    strProp("patient's full name"),
			"dob":             strProp("patient date of birth, ISO 8601 if determinable"),
			"dates_of_service": arrProp("string", "dates of service rendered"),
			"diagnoses":       arrProp("string", "diagnoses mentioned"),
			"procedures":      arrProp("string", "procedures performed"),
			"medications":     arrProp("string", "medications prescribed or administered"),
			"confidence":      confidenceProp,
		},
		"required": []string{"patient_name", "confidence"},
	},
}

var pleadingSchema = FunctionDef{
	Name:        "extract_pleading_json",
	Description: "Extract structured fields from a legal pleading.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"court":             strProp("court name"),
			"caption":           strProp("case caption"),
			"index_number":      strProp("docket or index number"),
			"parties":           arrProp("string", "named parties"),
			"causes_of_action":  arrProp("string", "causes of action alleged"),
			"relief_sought":     strProp("relief sought by the pleading"),
			"confidence":        confidenceProp,
		},
		"required": []string{"caption", "confidence"},
	},
}

var policeSchema = FunctionDef{
	Name:        "extract_police_json",
	Description: "Extract structured fields from a police incident report.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"report_number": strProp("incident report number"),
			"incident_date": strProp("date of the incident, ISO 8601 if determinable"),
			"location":      strProp("incident location"),
			"officer":       strProp("reporting officer's name"),
			"vehicles":      arrProp("string", "vehicles involved"),
			"injuries":      arrProp("string", "injuries reported"),
			"violations":    arrProp("string", "violations cited"),
			"confidence":    confidenceProp,
		},
		"required": []string{"incident_date", "confidence"},
	},
}

var transcriptSchema = FunctionDef{
	Name:        "extract_transcript_json",
	Description: "Extract structured fields from a deposition or hearing transcript.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"witness_name":         strProp("deponent or witness name"),
			"date":                 strProp("transcript date, ISO 8601 if determinable"),
			"key_admissions":       arrProp("string", "notable admissions made"),
			"key_inconsistencies":  arrProp("string", "notable inconsistencies found"),
			"credibility_factors":  arrProp("string", "factors bearing on witness credibility"),
			"citations": map[string]interface{}{
				"type":        "array",
				"description": "page/line citations supporting key findings",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"page": map[string]interface{}{"type": "integer", "description": "page number"},
						"line": strProp("line or line range"),
						"text": strProp("cited text"),
					},
					"required": []string{"page", "text"},
				},
			},
			"confidence": confidenceProp,
		},
		"required": []string{"confidence"},
	},
}

var eobSchema = FunctionDef{
	Name:        "extract_eob_json",
	Description: "Extract structured fields from an insurance explanation of benefits.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"payer":          strProp("insurance payer name"),
			"member":         strProp("member name or ID"),
			"claim_number":   strProp("claim number"),
			"service_dates":  arrProp("string", "dates of service covered"),
			"allowed_amount": strProp("total allowed amount"),
			"denied_amount":  strProp("total denied amount"),
			"adjustments":    arrProp("string", "adjustment line items"),
			"confidence":     confidenceProp,
		},
		"required": []string{"payer", "claim_number", "confidence"},
	},
}

var imagingSchema = FunctionDef{
	Name:        "extract_imaging_json",
	Description: "Extract structured fields from a radiology or imaging report.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"patient_name": strProp("patient's full name"),
			"study_type":   strProp("type of imaging study, e.g. MRI, CT, X-ray"),
			"study_date":   strProp("study date, ISO 8601 if determinable"),
			"impression":   arrProp("string", "radiologist's impression statements"),
			"findings":     arrProp("string", "detailed findings"),
			"confidence":   confidenceProp,
		},
		"required": []string{"impression", "confidence"},
	},
}

var byType = map[model.DocType]FunctionDef{
	model.DocMedical:      medicalSchema,
	model.DocPleading:     pleadingSchema,
	model.DocPolice:       policeSchema,
	model.DocTranscript:   transcriptSchema,
	model.DocInsuranceEOB: eobSchema,
	model.DocImaging:      imagingSchema,
}

var all = []FunctionDef{
	medicalSchema, pleadingSchema, policeSchema, transcriptSchema, eobSchema, imagingSchema,
}

// ForDocType returns the function definitions to attach to a request and the
// name of the function that should be forced, for the given DocType.
// UNKNOWN receives all six schemas with extract_medical_json forced, per
// spec.md §4.7.
func ForDocType(t model.DocType) (functions []FunctionDef, forced string) {
	if def, ok := byType[t]; ok {
		return []FunctionDef{def}, def.Name
	}
	return all, medicalSchema.Name
}
