// Package ocr wraps gosseract/Tesseract to turn a preprocessed page image
// into UTF-8 text, following spec.md §4.3.
package ocr

import (
	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/legalextract/internal/logging"
)

// Adapter invokes Tesseract for a configured language.
type Adapter struct {
	lang   string
	logger *logging.Logger
}

// New returns an Adapter for lang (a Tesseract language code, e.g. "eng").
func New(lang string, logger *logging.Logger) *Adapter {
	return &Adapter{lang: lang, logger: logger}
}

// Text runs OCR over imageBytes (a preprocessed PNG) and returns the
// recognized text. Initialization or recognition failure is logged and
// returns "" rather than an error: spec.md treats empty-text-for-all-pages,
// not a single page's OCR failure, as the fatal condition.
func (a *Adapter) Text(imageBytes []byte) string {
	client := gosseract.NewClient()
	defer client.Close()

	// Force LSTM-only recognition (tessedit_ocr_engine_mode=1) rather than
	// relying on the build's default engine mode, per spec.md §4.3.
	if err := client.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), "1"); err != nil {
		a.logger.Warn("failed to set tessedit_ocr_engine_mode", "error", err)
	}

	if err := client.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		a.logger.Warn("failed to set preserve_interword_spaces", "error", err)
	}

	if err := client.SetLanguage(a.lang); err != nil {
		a.logger.Warn("tesseract init failed", "lang", a.lang, "error", err)
		return ""
	}

	if err := client.SetImageFromBytes(imageBytes); err != nil {
		a.logger.Warn("failed to set OCR image", "error", err)
		return ""
	}

	text, err := client.Text()
	if err != nil {
		a.logger.Warn("tesseract recognition failed", "error", err)
		return ""
	}
	return text
}
