package schema

import (
	"testing"

	"github.com/adverant/legalextract/internal/model"
)

func TestForDocTypeKnownReturnsSingleSchema(t *testing.T) {
	funcs, forced := ForDocType(model.DocMedical)
	if len(funcs) != 1 {
		t.Fatalf("len(funcs) = %d, want 1", len(funcs))
	}
	if forced != "extract_medical_json" {
		t.Fatalf("forced = %q, want extract_medical_json", forced)
	}
}

func TestForDocTypeUnknownReturnsAllSixForcedMedical(t *testing.T) {
	funcs, forced := ForDocType(model.DocUnknown)
	if len(funcs) != 6 {
		t.Fatalf("len(funcs) = %d, want 6", len(funcs))
	}
	if forced != "extract_medical_json" {
		t.Fatalf("forced = %q, want extract_medical_json", forced)
	}
}

func TestEveryTypeHasConfidenceRequired(t *testing.T) {
	for _, def := range all {
		props, ok := def.Parameters["properties"].(map[string]interface{})
		if !ok {
			t.Fatalf("%s: properties missing", def.Name)
		}
		if _, ok := props["confidence"]; !ok {
			t.Fatalf("%s: confidence property missing", def.Name)
		}
		required, ok := def.Parameters["required"].([]string)
		if !ok {
			t.Fatalf("%s: required list missing", def.Name)
		}
		found := false
		for _, r := range required {
			if r == "confidence" {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: confidence not in required list %v", def.Name, required)
		}
	}
}

func TestTranscriptCitationsRequirePageAndText(t *testing.T) {
	citations := transcriptSchema.Parameters["properties"].(map[string]interface{})["citations"].(map[string]interface{})
	items := citations["items"].(map[string]interface{})
	required := items["required"].([]string)
	if len(required) != 2 || required[0] != "page" || required[1] != "text" {
		t.Fatalf("citations.items.required = %v, want [page text]", required)
	}
}
