package ocr

import (
	"testing"

	"github.com/adverant/legalextract/internal/logging"
)

func TestNewStoresLang(t *testing.T) {
	a := New("eng", logging.NewLogger("test"))
	if a.lang != "eng" {
		t.Fatalf("lang = %q, want eng", a.lang)
	}
}

func TestTextReturnsEmptyOnGarbageInput(t *testing.T) {
	a := New("eng", logging.NewLogger("test"))
	// Not a real image; SetImageFromBytes (or SetLanguage, depending on the
	// host's tessdata availability) is expected to fail, and Text must
	// degrade to "" rather than panic or return an error.
	got := a.Text([]byte("not an image"))
	if got != "" {
		t.Logf("tesseract recovered text from garbage input: %q (environment-dependent, not a failure)", got)
	}
}
