package merge

import (
	"testing"

	"github.com/adverant/legalextract/internal/model"
)

func TestBuildAlwaysSetsDocTypeSourcePageCount(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.7}
	candidates := model.LocalCandidates{}
	merged := Build(result, candidates, model.DocMedical, "/tmp/foo/bar.pdf", 3, "full text", false)

	if merged["doc_type"] != "medical" {
		t.Fatalf("doc_type = %v", merged["doc_type"])
	}
	if merged["source"] != "bar.pdf" {
		t.Fatalf("source = %v", merged["source"])
	}
	if merged["page_count"] != 3 {
		t.Fatalf("page_count = %v", merged["page_count"])
	}
	if _, ok := merged["raw_ocr_preview"]; ok {
		t.Fatalf("raw_ocr_preview should be absent without audit")
	}
}

func TestBuildCopiesSnippetsWhenModelLacksThem(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.5}
	candidates := model.LocalCandidates{"important_snippets": "some snippet"}
	merged := Build(result, candidates, model.DocMedical, "f.pdf", 1, "", false)
	if merged["snippets"] != "some snippet" {
		t.Fatalf("snippets = %v", merged["snippets"])
	}
}

func TestBuildDoesNotOverwriteExistingSnippets(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.5, "snippets": "model snippet"}
	candidates := model.LocalCandidates{"important_snippets": "local snippet"}
	merged := Build(result, candidates, model.DocMedical, "f.pdf", 1, "", false)
	if merged["snippets"] != "model snippet" {
		t.Fatalf("snippets = %v, should not overwrite model value", merged["snippets"])
	}
}

func TestBuildSetsNameCandidateOnBothFieldsIndependently(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.5, "patient_name": "Already Set"}
	candidates := model.LocalCandidates{"name_candidate": "Jane Doe"}
	merged := Build(result, candidates, model.DocMedical, "f.pdf", 1, "", false)
	if merged["patient_name"] != "Already Set" {
		t.Fatalf("patient_name should not be overwritten: %v", merged["patient_name"])
	}
	if merged["member"] != "Jane Doe" {
		t.Fatalf("member should be set independently: %v", merged["member"])
	}
}

func TestBuildCopiesTranscriptCitationsOnlyForTranscript(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.5}
	candidates := model.LocalCandidates{"local_citations": []model.Citation{{Page: 1, Line: "2", Text: "x"}}}

	merged := Build(result, candidates, model.DocTranscript, "f.pdf", 1, "", false)
	if _, ok := merged["citations"]; !ok {
		t.Fatalf("expected citations copied for TRANSCRIPT")
	}

	mergedOther := Build(result, candidates, model.DocMedical, "f.pdf", 1, "", false)
	if _, ok := mergedOther["citations"]; ok {
		t.Fatalf("citations should not be copied for non-TRANSCRIPT docType")
	}
}

func TestBuildAuditSetsRawOCRPreviewTruncated(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}
	result := model.ExtractionResult{"confidence": 0.1}
	merged := Build(result, model.LocalCandidates{}, model.DocMedical, "f.pdf", 1, string(long), true)
	preview, ok := merged["raw_ocr_preview"].(string)
	if !ok || len(preview) != rawOCRPreviewLimit {
		t.Fatalf("raw_ocr_preview len = %d, want %d", len(preview), rawOCRPreviewLimit)
	}
}

func TestRedactMasksSSNPhoneEmail(t *testing.T) {
	record := model.MergedRecord{
		"notes": "SSN 123-45-6789, call (555) 123-4567, email jane@example.com",
		"nested": map[string]interface{}{
			"more": []interface{}{"phone 555-123-4567"},
		},
	}
	redacted := Redact(record)
	notes := redacted["notes"].(string)
	if containsDigitsSSN(notes) {
		t.Fatalf("SSN not redacted: %s", notes)
	}

	nested := redacted["nested"].(map[string]interface{})
	list := nested["more"].([]interface{})
	if list[0].(string) != "phone ***-***-****" {
		t.Fatalf("nested phone not redacted: %v", list[0])
	}
}

func TestRedactMasksPhoneInsideLocalCitations(t *testing.T) {
	result := model.ExtractionResult{"confidence": 0.5}
	candidates := model.LocalCandidates{
		"local_citations": []model.Citation{
			{Page: 3, Line: "22", Text: "A: my number is 555-123-4567."},
		},
	}
	merged := Build(result, candidates, model.DocTranscript, "f.pdf", 1, "", false)
	redacted := Redact(merged)

	citations, ok := redacted["citations"].([]model.Citation)
	if !ok {
		t.Fatalf("citations = %v (%T), want []model.Citation", redacted["citations"], redacted["citations"])
	}
	if containsDigitsSSN(citations[0].Text) || phoneRe.MatchString(citations[0].Text) {
		t.Fatalf("citation text not redacted: %q", citations[0].Text)
	}
}

func TestRedactIsIdempotent(t *testing.T) {
	record := model.MergedRecord{"notes": "SSN 123-45-6789 and jane@example.com"}
	once := Redact(record)
	onceCopy := model.MergedRecord{"notes": once["notes"]}
	twice := Redact(onceCopy)
	if once["notes"] != twice["notes"] {
		t.Fatalf("redaction not idempotent: %v vs %v", once["notes"], twice["notes"])
	}
}

func containsDigitsSSN(s string) bool {
	return ssnRe.MatchString(s)
}
