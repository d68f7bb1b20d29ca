// Package model holds the data types shared across the extraction pipeline:
// inputs, intermediate OCR artifacts, local candidates, and the records
// emitted to sinks.
package model

// MediaKind is the coarse kind of a pipeline input.
type MediaKind string

const (
	MediaPDF   MediaKind = "pdf"
	MediaImage MediaKind = "image"
)

// InputRef is an immutable reference to one file the orchestrator discovered.
type InputRef struct {
	Path string
	Kind MediaKind
}

// PageImage is a rasterized page, ordered by Index within its document.
type PageImage struct {
	Index int
	Path  string
}

// PageText is the OCR output for one page, ordered by Index within its document.
type PageText struct {
	Index int
	Text  string
}

// DocType is the coarse document classification used to pick a schema.
type DocType string

const (
	DocMedical      DocType = "MEDICAL"
	DocPleading     DocType = "PLEADING"
	DocPolice       DocType = "POLICE"
	DocTranscript   DocType = "TRANSCRIPT"
	DocInsuranceEOB DocType = "INSURANCE_EOB"
	DocImaging      DocType = "IMAGING"
	DocUnknown      DocType = "UNKNOWN"
)

// Tag is the lowercase form stored in MergedRecord.doc_type and used as the
// cache-key document-type tag.
func (d DocType) Tag() string {
	switch d {
	case DocMedical:
		return "medical"
	case DocPleading:
		return "pleading"
	case DocPolice:
		return "police"
	case DocTranscript:
		return "transcript"
	case DocInsuranceEOB:
		return "insurance_eob"
	case DocImaging:
		return "imaging"
	default:
		return "unknown"
	}
}

// Citation is a transcript line reference, local or model-produced.
type Citation struct {
	Page int    `json:"page"`
	Line string `json:"line,omitempty"`
	Text string `json:"text"`
}

// LocalCandidates is the pre-LLM extraction artifact: the snippet plus any
// regex-found fields. Stored as a generic map so it serializes exactly the
// way the cache key and the remote request body expect.
type LocalCandidates map[string]interface{}

// ExtractionResult is the structured JSON returned by (or read from cache
// for) the remote extractor. Always has a "confidence" key.
type ExtractionResult map[string]interface{}

// MergedRecord is the final per-document structured output.
type MergedRecord map[string]interface{}

// DocResult is produced exactly once per input.
type DocResult struct {
	InputPath string       `json:"source"`
	DocType   string       `json:"doc_type"`
	Merged    MergedRecord `json:"data,omitempty"`
	OK        bool         `json:"ok"`
	Error     string       `json:"error,omitempty"`
	Pages     int          `json:"pages"`
	CharsUsed int          `json:"chars_used"`
}
