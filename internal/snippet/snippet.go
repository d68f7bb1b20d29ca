// Package snippet extracts a bounded, keyword-windowed excerpt of OCR text
// to minimize the tokens sent to the remote extractor.
package snippet

import (
	"strings"
	"unicode/utf8"

	"github.com/adverant/legalextract/internal/classify"
	"github.com/adverant/legalextract/internal/model"
)

// Select builds the important_snippets text for docType out of text,
// following spec.md §4.5: keyword-window lines [i-2, i+2], clamped to
// document bounds, skipping empty lines, capped at maxLines non-empty
// lines; falls back to the first maxLines non-empty lines when no keyword
// hits; truncated UTF-8-safely to maxChars, dropping a trailing partial
// line before truncating.
func Select(text string, docType model.DocType, maxLines, maxChars int) string {
	rawLines := strings.Split(text, "\n")
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = strings.TrimSpace(l)
	}

	keywords := classify.Keywords(docType)
	lowerLines := make([]string, len(lines))
	for i, l := range lines {
		lowerLines[i] = strings.ToLower(l)
	}

	picked := make([]string, 0, maxLines)
	seen := make(map[int]bool)

	addWindow := func(i int) bool {
		lo, hi := i-2, i+2
		if lo < 0 {
			lo = 0
		}
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			if len(picked) >= maxLines {
				return false
			}
			if lines[j] == "" || seen[j] {
				continue
			}
			seen[j] = true
			picked = append(picked, lines[j])
			if len(picked) >= maxLines {
				return false
			}
		}
		return true
	}

	hitAny := false
	for i, lower := range lowerLines {
		if lines[i] == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hitAny = true
				if !addWindow(i) {
					break
				}
				break
			}
		}
		if len(picked) >= maxLines {
			break
		}
	}

	if !hitAny {
		picked = picked[:0]
		for _, l := range lines {
			if l == "" {
				continue
			}
			picked = append(picked, l)
			if len(picked) >= maxLines {
				break
			}
		}
	}

	joined := strings.Join(picked, "\n")
	return truncateUTF8(joined, maxChars)
}

// truncateUTF8 truncates s to at most maxChars bytes without splitting a
// UTF-8 rune, dropping a trailing partial line first.
func truncateUTF8(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := s[:maxChars]
	if nl := strings.LastIndexByte(cut, '\n'); nl >= 0 {
		cut = cut[:nl]
	}
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
