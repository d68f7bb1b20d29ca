// Package preprocess turns a decoded page image into the grayscale,
// deskewed, denoised, binarized tile the OCR adapter expects, following
// spec.md's §4.2 pipeline: grayscale -> deskew -> denoise -> adaptive
// threshold.
//
// The corpus carries no OpenCV/gocv-style binding for Hough-line deskew,
// non-local-means denoise, or adaptive Gaussian threshold (disintegration/
// imaging covers affine ops and simple filters, not these), so the three
// steps are hand-written against image.Gray; grayscale conversion and final
// encoding still route through disintegration/imaging, the corpus's image
// library.
package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/adverant/legalextract/internal/errors"
)

const (
	deskewBlockSize  = 31
	deskewConstant   = 15
	denoiseStrength  = 30.0
	thresholdBlock   = 31
	thresholdConstant = 15
)

// Run applies the full preprocessing pipeline to img and returns PNG-encoded
// bytes ready to hand to the OCR adapter.
func Run(img image.Image) ([]byte, error) {
	gray, err := toGray(img)
	if err != nil {
		return nil, err
	}

	angle := estimateSkewAngle(gray)
	deskewed := rotateReplicate(gray, angle)
	denoised := denoiseNLM(deskewed, denoiseStrength)
	binary := adaptiveThreshold(denoised, thresholdBlock, thresholdConstant)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, binary, imaging.PNG); err != nil {
		return nil, errors.New(errors.ImageReadError, "failed to encode preprocessed image", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) (*image.Gray, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New(errors.ImageReadError, "image has empty bounds", nil)
	}
	grayish := imaging.Grayscale(img)
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, grayish.At(x, y))
		}
	}
	return gray, nil
}

// estimateSkewAngle runs a Hough-line accumulation over an adaptively
// thresholded inverse (foreground = dark strokes) of gray, restricted to
// spec.md's accepted angle bands, and averages the accepted peak angles.
// Returns 0 when no lines fall in the accepted bands.
func estimateSkewAngle(gray *image.Gray) float64 {
	fg := adaptiveThresholdInverse(gray, deskewBlockSize, deskewConstant)
	bounds := fg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	stride := 1
	if w*h > 400_000 {
		stride = 4
	}

	const numTheta = 180
	cosT := make([]float64, numTheta)
	sinT := make([]float64, numTheta)
	for t := 0; t < numTheta; t++ {
		rad := float64(t) * math.Pi / 180
		cosT[t] = math.Cos(rad)
		sinT[t] = math.Sin(rad)
	}

	bestCount := make([]int, numTheta)
	for t := 0; t < numTheta; t++ {
		rhoCounts := make(map[int]int)
		for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
			for x := bounds.Min.X; x < bounds.Max.X; x += stride {
				if fg.GrayAt(x, y).Y == 0 {
					continue
				}
				rho := int(math.Round(float64(x)*cosT[t] + float64(y)*sinT[t]))
				rhoCounts[rho]++
			}
		}
		max := 0
		for _, c := range rhoCounts {
			if c > max {
				max = c
			}
		}
		bestCount[t] = max
	}

	globalMax := 0
	for _, c := range bestCount {
		if c > globalMax {
			globalMax = c
		}
	}
	if globalMax == 0 {
		return 0
	}

	threshold := int(float64(globalMax) * 0.9)
	var sum float64
	var n int
	for t := 0; t < numTheta; t++ {
		if bestCount[t] < threshold {
			continue
		}
		if rotation, ok := bandRotation(float64(t)); ok {
			sum += rotation
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// bandRotation maps a Hough theta (degrees, [0,180)) to the rotation degree
// that corrects it, accepting only spec.md's two bands and discarding
// [80,100]. Band 1 (0,45) is already a small positive/negative-adjacent
// rotation and passes through unchanged. Band 2 (135,180) is the same
// physical line orientation seen from the other direction, so it is folded
// to a negative rotation (angle-180) rather than used as a near-180-degree
// rotation: a peak at theta=170 means a -10 degree skew, not a +170 one.
func bandRotation(angle float64) (float64, bool) {
	if angle >= 80 && angle <= 100 {
		return 0, false
	}
	if angle > 0 && angle < 45 {
		return angle, true
	}
	if angle > 135 && angle < 180 {
		return angle - 180, true
	}
	return 0, false
}

// rotateReplicate rotates gray by angleDeg about its center, sampling the
// source with bilinear interpolation and clamping out-of-bounds coordinates
// to the nearest edge pixel (border replicate).
func rotateReplicate(gray *image.Gray, angleDeg float64) *image.Gray {
	if angleDeg == 0 {
		return gray
	}
	rad := angleDeg * math.Pi / 180
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	cosA, sinA := math.Cos(rad), math.Sin(rad)

	out := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			srcX := dx*cosA + dy*sinA + cx
			srcY := -dx*sinA + dy*cosA + cy
			out.SetGray(x, y, bilinearReplicate(gray, srcX, srcY))
		}
	}
	return out
}

func bilinearReplicate(gray *image.Gray, fx, fy float64) color.Gray {
	bounds := gray.Bounds()
	clampX := func(x int) int {
		if x < bounds.Min.X {
			return bounds.Min.X
		}
		if x >= bounds.Max.X {
			return bounds.Max.X - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < bounds.Min.Y {
			return bounds.Min.Y
		}
		if y >= bounds.Max.Y {
			return bounds.Max.Y - 1
		}
		return y
	}

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1, y1 := x0+1, y0+1
	tx, ty := fx-float64(x0), fy-float64(y0)

	v00 := float64(gray.GrayAt(clampX(x0), clampY(y0)).Y)
	v10 := float64(gray.GrayAt(clampX(x1), clampY(y0)).Y)
	v01 := float64(gray.GrayAt(clampX(x0), clampY(y1)).Y)
	v11 := float64(gray.GrayAt(clampX(x1), clampY(y1)).Y)

	top := v00*(1-tx) + v10*tx
	bottom := v01*(1-tx) + v11*tx
	v := top*(1-ty) + bottom*ty
	return color.Gray{Y: uint8(math.Round(v))}
}

// denoiseNLM applies a simplified non-local-means filter: each pixel is
// replaced by a weighted average of pixels in a 7x7 search window, weighted
// by the similarity of their surrounding 3x3 patch to the center patch,
// with h controlling how quickly weight falls off with patch distance.
func denoiseNLM(gray *image.Gray, h float64) *image.Gray {
	const patchRadius = 1
	const searchRadius = 3

	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	hh := h * h

	patchSSD := func(cx1, cy1, cx2, cy2 int) float64 {
		var ssd float64
		for dy := -patchRadius; dy <= patchRadius; dy++ {
			for dx := -patchRadius; dx <= patchRadius; dx++ {
				a := float64(clampedGray(gray, cx1+dx, cy1+dy))
				b := float64(clampedGray(gray, cx2+dx, cy2+dy))
				diff := a - b
				ssd += diff * diff
			}
		}
		return ssd
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var weightSum, valueSum float64
			for sy := -searchRadius; sy <= searchRadius; sy++ {
				for sx := -searchRadius; sx <= searchRadius; sx++ {
					nx, ny := x+sx, y+sy
					ssd := patchSSD(x, y, nx, ny)
					w := math.Exp(-ssd / hh)
					weightSum += w
					valueSum += w * float64(clampedGray(gray, nx, ny))
				}
			}
			v := valueSum / weightSum
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return out
}

func clampedGray(gray *image.Gray, x, y int) uint8 {
	bounds := gray.Bounds()
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	if x >= bounds.Max.X {
		x = bounds.Max.X - 1
	}
	if y < bounds.Min.Y {
		y = bounds.Min.Y
	}
	if y >= bounds.Max.Y {
		y = bounds.Max.Y - 1
	}
	return gray.GrayAt(x, y).Y
}

// adaptiveThreshold binarizes gray: a pixel is foreground-white (255) when
// it is brighter than its local Gaussian-blurred neighborhood minus c,
// background-black (0) otherwise.
func adaptiveThreshold(gray *image.Gray, blockSize, c int) *image.Gray {
	blurred := gaussianBlur(gray, blockSize)
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			src := int(gray.GrayAt(x, y).Y)
			local := int(blurred.GrayAt(x, y).Y)
			if src > local-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// adaptiveThresholdInverse is adaptiveThreshold with foreground/background
// swapped, used to turn dark strokes into the "foreground" votes the Hough
// accumulator counts.
func adaptiveThresholdInverse(gray *image.Gray, blockSize, c int) *image.Gray {
	blurred := gaussianBlur(gray, blockSize)
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			src := int(gray.GrayAt(x, y).Y)
			local := int(blurred.GrayAt(x, y).Y)
			if src <= local-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// gaussianBlur applies a separable Gaussian blur with a kernel sized
// blockSize (odd) and sigma = blockSize/6, used as the local-neighborhood
// estimate for adaptive thresholding.
func gaussianBlur(gray *image.Gray, blockSize int) *image.Gray {
	if blockSize%2 == 0 {
		blockSize++
	}
	sigma := float64(blockSize) / 6.0
	if sigma <= 0 {
		sigma = 1
	}
	radius := blockSize / 2

	kernel := make([]float64, blockSize)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	bounds := gray.Bounds()
	horiz := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * float64(clampedGray(gray, x+k, y))
			}
			horiz.SetGray(x, y, color.Gray{Y: uint8(math.Round(acc))})
		}
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * float64(clampedGray(horiz, x, y+k))
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(acc))})
		}
	}
	return out
}
