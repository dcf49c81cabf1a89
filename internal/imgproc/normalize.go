// Package imgproc prepares scanned lab reports for OCR: upscaling,
// binarization, and removal of the tabular ruling lines that otherwise
// corrupt character segmentation.
package imgproc

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Normalizer converts an arbitrary input image into a bitmap suited for OCR.
// Implementations must be total: whatever happens, some usable image comes
// back, worst case the input itself.
type Normalizer interface {
	Clean(img image.Image) image.Image
}

// Noop returns the input unchanged. It stands in for the cleaner wherever
// full image normalization is unavailable or disabled, and gives tests a
// deterministic "vision support absent" mode.
type Noop struct{}

func (Noop) Clean(img image.Image) image.Image { return img }

// Cleaner is the full normalization pipeline:
//
//  1. upscale 2x with Lanczos resampling to counteract low-resolution scans
//  2. grayscale, then Otsu binarization inverted so text is foreground
//  3. erase long horizontal and vertical ruling lines found by morphological
//     opening with wide/tall rectangular kernels
//  4. invert back and erode lightly to consolidate glyph strokes
//
// Stages fall back to the previous stage's image when they cannot apply, so
// a degenerate region never aborts the whole pipeline.
type Cleaner struct {
	logger *slog.Logger

	// LineKernel is the run length (in pixels, after upscaling) that
	// qualifies as a ruling line.
	LineKernel int
}

func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger, LineKernel: 50}
}

func (c *Cleaner) Clean(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return img
	}

	upscaled := imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	gray := toGray(imaging.Grayscale(upscaled))

	bin, ok := binarizeOtsuInv(gray)
	if !ok {
		// flat image, nothing to threshold against
		c.logger.Debug("imgproc.clean.binarize_skipped")
		return gray
	}

	c.eraseRulingLines(bin)

	invertInPlace(bin)
	return erode(bin, 2, 2)
}

// eraseRulingLines paints over long horizontal and vertical runs in a binary
// (0/255) image. Targets tabular report layouts; anything shorter than
// LineKernel survives.
func (c *Cleaner) eraseRulingLines(bin *image.Gray) {
	k := c.LineKernel
	if k <= 1 {
		return
	}

	horizontal := openHorizontal(bin, k)
	vertical := openVertical(bin, k)

	// clear detected lines with a 1px margin so anti-aliased edges go too
	subtractDilated(bin, horizontal)
	subtractDilated(bin, vertical)
}
