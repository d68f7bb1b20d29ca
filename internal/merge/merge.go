// Package merge overlays LocalCandidates onto a remote ExtractionResult to
// build a MergedRecord, and optionally redacts PII-shaped strings from it,
// per spec.md §4.10.
package merge

import (
	"path/filepath"
	"regexp"

	"github.com/adverant/legalextract/internal/model"
)

const rawOCRPreviewLimit = 4000

// Build overlays candidates onto result and stamps the always-present
// fields, returning the MergedRecord. fullText is the concatenation of all
// page texts (used only for raw_ocr_preview). auditRawOCR controls whether
// that preview is included.
func Build(result model.ExtractionResult, candidates model.LocalCandidates, docType model.DocType, sourcePath string, pageCount int, fullText string, auditRawOCR bool) model.MergedRecord {
	merged := model.MergedRecord{}
	for k, v := range result {
		merged[k] = v
	}

	if _, ok := merged["snippets"]; !ok {
		if snip, ok := candidates["important_snippets"]; ok {
			merged["snippets"] = snip
		}
	}

	if nameCandidate, ok := candidates["name_candidate"]; ok {
		if _, hasPatient := merged["patient_name"]; !hasPatient {
			merged["patient_name"] = nameCandidate
		}
		if _, hasMember := merged["member"]; !hasMember {
			merged["member"] = nameCandidate
		}
	}

	if docType == model.DocTranscript {
		if _, ok := merged["citations"]; !ok {
			if localCitations, ok := candidates["local_citations"]; ok {
				merged["citations"] = localCitations
			}
		}
	}

	merged["doc_type"] = docType.Tag()
	merged["source"] = filepath.Base(sourcePath)
	merged["page_count"] = pageCount

	if auditRawOCR {
		merged["raw_ocr_preview"] = truncate(fullText, rawOCRPreviewLimit)
	}

	return merged
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	ssnRe   = regexp.MustCompile(`\d{3}[- ]?\d{2}[- ]?\d{4}`)
	phoneRe = regexp.MustCompile(`(\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Redact walks record's JSON tree and masks every SSN-, phone-, or
// email-shaped substring found in a string value. It mutates and returns
// the same map; running it twice is a no-op since the mask patterns do not
// themselves match the regexes above.
func Redact(record model.MergedRecord) model.MergedRecord {
	for k, v := range record {
		record[k] = redactValue(v)
	}
	return record
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return redactString(t)
	case map[string]interface{}:
		for k, nested := range t {
			t[k] = redactValue(nested)
		}
		return t
	case []interface{}:
		for i, nested := range t {
			t[i] = redactValue(nested)
		}
		return t
	case []model.Citation:
		// local_citations copies this slice in as-is (merge.go's TRANSCRIPT
		// branch above), so it can reach here still typed as []model.Citation
		// rather than the generic []interface{} a remote JSON response would
		// produce; its Text field can carry the same PII a model-produced
		// citation would.
		for i, c := range t {
			c.Text = redactString(c.Text)
			t[i] = c
		}
		return t
	default:
		return v
	}
}

func redactString(s string) string {
	s = ssnRe.ReplaceAllString(s, "***-**-****")
	s = phoneRe.ReplaceAllString(s, "***-***-****")
	s = emailRe.ReplaceAllString(s, "***@***.***")
	return s
}
