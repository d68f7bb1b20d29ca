package preprocess

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/adverant/legalextract/internal/errors"
)

// Decode opens path and decodes it as an image, registering png/jpeg/gif
// (stdlib) and tiff/bmp/webp (golang.org/x/image) decoders as a side effect
// of the blank imports above.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ImageReadError, "failed to open image file", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Newf(errors.ImageReadError, err, "failed to decode image %q", filepath.Base(path))
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.Newf(errors.ImageReadError, nil, "decoded %s image has empty bounds", format)
	}
	return img, nil
}

// supportedExt reports whether ext (including the leading dot, any case)
// names a raster format this package can decode directly, as opposed to a
// PDF that must first pass through the rasterizer.
func supportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp":
		return true
	}
	return false
}

// SupportedExt exposes supportedExt for callers outside the package that
// need to route inputs between the rasterizer and direct image decoding.
func SupportedExt(ext string) bool {
	return supportedExt(ext)
}
