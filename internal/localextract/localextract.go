// Package localextract produces model.LocalCandidates (the keyword-windowed
// snippet plus cheap regex probes over the full OCR text) before any remote
// call is made.
package localextract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/adverant/legalextract/internal/model"
	"github.com/adverant/legalextract/internal/snippet"
)

var (
	nameRe  = regexp.MustCompile(`(?i)(Patient|Name)\s*[:\-]\s*([A-Za-z ,.\-']{3,90})`)
	dateRe  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b|\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	phoneRe = regexp.MustCompile(`(\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`)
	pageRe  = regexp.MustCompile(`(?i)page\s+(\d+)`)
	lineRe  = regexp.MustCompile(`(?i)lines?\s+(\d+)(?:-(\d+))?`)

	maxCitations = 10
)

// Extract builds LocalCandidates for one document's full OCR text, already
// classified as docType, bounded by maxSnippetLines/maxSnippetChars.
func Extract(fullText string, docType model.DocType, maxSnippetLines, maxSnippetChars int) model.LocalCandidates {
	cand := model.LocalCandidates{}

	snip := snippet.Select(fullText, docType, maxSnippetLines, maxSnippetChars)
	cand["important_snippets"] = snip
	cand["char_count"] = len(snip)

	if m := nameRe.FindStringSubmatch(fullText); m != nil {
		cand["name_candidate"] = strings.TrimSpace(m[0])
	}
	if m := dateRe.FindStringSubmatch(fullText); m != nil {
		cand["date_candidate"] = firstNonEmpty(m[1:]...)
	}
	if m := phoneRe.FindString(fullText); m != "" {
		cand["phone_candidate"] = m
	}

	if docType == model.DocTranscript {
		if cites := extractCitations(fullText); len(cites) > 0 {
			cand["local_citations"] = cites
		}
	}

	return cand
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// extractCitations scans fullText line by line, tracking the current page
// number from "page N" markers and emitting a citation for each
// "line(s) N[-M]" reference, capped at maxCitations, preserving order.
func extractCitations(fullText string) []model.Citation {
	var cites []model.Citation
	currentPage := 0

	for _, raw := range strings.Split(fullText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := pageRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				currentPage = n
			}
		}
		if m := lineRe.FindStringSubmatch(line); m != nil {
			cites = append(cites, model.Citation{
				Page: currentPage,
				Line: lineLabel(m[1], m[2]),
				Text: line,
			})
			if len(cites) >= maxCitations {
				break
			}
		}
	}
	return cites
}

func lineLabel(start, end string) string {
	if end == "" {
		return start
	}
	return start + "-" + end
}
