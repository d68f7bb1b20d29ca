package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRunProducesDecodablePNG(t *testing.T) {
	img := solidImage(64, 64, color.White)
	out, err := Run(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("Run output is not a valid PNG: %v", err)
	}
}

func TestToGrayRejectsEmptyBounds(t *testing.T) {
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := toGray(empty); err == nil {
		t.Fatalf("expected ImageReadError for empty-bounds image")
	}
}

func TestEstimateSkewAngleZeroOnBlankImage(t *testing.T) {
	gray, err := toGray(solidImage(128, 128, color.White))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	angle := estimateSkewAngle(gray)
	if angle != 0 {
		t.Fatalf("expected 0 skew on a blank image, got %v", angle)
	}
}

func TestBandRotationFoldsSecondBandToNegative(t *testing.T) {
	rotation, ok := bandRotation(170)
	if !ok {
		t.Fatalf("expected theta=170 to be accepted")
	}
	if rotation != -10 {
		t.Fatalf("bandRotation(170) = %v, want -10", rotation)
	}
}

func TestBandRotationFirstBandPassesThrough(t *testing.T) {
	rotation, ok := bandRotation(10)
	if !ok {
		t.Fatalf("expected theta=10 to be accepted")
	}
	if rotation != 10 {
		t.Fatalf("bandRotation(10) = %v, want 10", rotation)
	}
}

func TestBandRotationRejectsDiscardedAndBoundaryAngles(t *testing.T) {
	for _, angle := range []float64{0, 45, 90, 135, 180, 85} {
		if _, ok := bandRotation(angle); ok {
			t.Fatalf("bandRotation(%v) should be rejected", angle)
		}
	}
}

func TestRotateReplicateNoopAtZero(t *testing.T) {
	gray, _ := toGray(solidImage(32, 32, color.Gray{Y: 128}))
	rotated := rotateReplicate(gray, 0)
	if rotated != gray {
		t.Fatalf("rotateReplicate(angle=0) should return the same image unchanged")
	}
}

func TestAdaptiveThresholdIsBinary(t *testing.T) {
	gray, _ := toGray(solidImage(40, 40, color.Gray{Y: 200}))
	bin := adaptiveThreshold(gray, thresholdBlock, thresholdConstant)
	bounds := bin.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := bin.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("non-binary pixel value %d at (%d,%d)", v, x, y)
			}
		}
	}
}
