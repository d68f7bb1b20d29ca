package localextract

import (
	"testing"

	"github.com/adverant/legalextract/internal/model"
)

func TestExtractAlwaysSetsSnippetAndCharCount(t *testing.T) {
	cand := Extract("no keywords here at all, just prose.", model.DocMedical, 10, 500)
	if _, ok := cand["important_snippets"]; !ok {
		t.Fatalf("important_snippets not set: %v", cand)
	}
	if _, ok := cand["char_count"]; !ok {
		t.Fatalf("char_count not set: %v", cand)
	}
}

func TestExtractNameCandidate(t *testing.T) {
	text := "Patient: Jane A. Doe\nDiagnosis: sprain"
	cand := Extract(text, model.DocMedical, 10, 500)
	name, ok := cand["name_candidate"].(string)
	if !ok || name == "" {
		t.Fatalf("expected name_candidate, got %v", cand["name_candidate"])
	}
}

func TestExtractDateCandidateISO(t *testing.T) {
	cand := Extract("Visit date: 2024-03-15 for follow-up.", model.DocMedical, 10, 500)
	if got := cand["date_candidate"]; got != "2024-03-15" {
		t.Fatalf("date_candidate = %v, want 2024-03-15", got)
	}
}

func TestExtractPhoneCandidate(t *testing.T) {
	cand := Extract("Call us at (555) 123-4567 for records.", model.DocMedical, 10, 500)
	if _, ok := cand["phone_candidate"]; !ok {
		t.Fatalf("expected phone_candidate, got %v", cand)
	}
}

func TestExtractCitationsTranscriptOnly(t *testing.T) {
	text := "Page 3\nQ: where were you?\nLines 4-6\nA: at home.\nPage 4\nLine 2\nA: yes."
	cand := Extract(text, model.DocTranscript, 40, 6000)
	cites, ok := cand["local_citations"].([]model.Citation)
	if !ok || len(cites) == 0 {
		t.Fatalf("expected local_citations, got %v", cand["local_citations"])
	}
	if cites[0].Page != 3 || cites[0].Line != "4-6" {
		t.Fatalf("unexpected first citation: %+v", cites[0])
	}

	other := Extract(text, model.DocMedical, 40, 6000)
	if _, ok := other["local_citations"]; ok {
		t.Fatalf("local_citations should only be set for TRANSCRIPT, got %v", other)
	}
}

func TestExtractCitationsCappedAtTen(t *testing.T) {
	text := "Page 1\n"
	for i := 0; i < 20; i++ {
		text += "Line 1\nA: yes.\n"
	}
	cand := Extract(text, model.DocTranscript, 200, 60000)
	cites := cand["local_citations"].([]model.Citation)
	if len(cites) != maxCitations {
		t.Fatalf("len(citations) = %d, want %d", len(cites), maxCitations)
	}
}
