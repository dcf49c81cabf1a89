package imgproc

import (
	"image"
	"image/draw"
)

// Binary images here use 0 for background and 255 for foreground.

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// otsuThreshold picks the threshold maximizing between-class variance.
// ok is false when the histogram is flat.
func otsuThreshold(img *image.Gray) (uint8, bool) {
	var hist [256]int
	total := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
		total += b.Dx()
	}
	if total == 0 {
		return 0, false
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumB, wB float64
	bestVar := -1.0
	best := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	if bestVar <= 0 {
		return 0, false
	}
	return uint8(best), true
}

// binarizeOtsuInv thresholds with Otsu's method, inverted: dark pixels (ink)
// become foreground 255.
func binarizeOtsuInv(img *image.Gray) (*image.Gray, bool) {
	thr, ok := otsuThreshold(img)
	if !ok {
		return nil, false
	}
	b := img.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v > thr {
				dst[x] = 0
			} else {
				dst[x] = 255
			}
		}
	}
	return out, true
}

func invertInPlace(img *image.Gray) {
	for i, v := range img.Pix {
		img.Pix[i] = 255 - v
	}
}

// openHorizontal performs morphological opening with a k x 1 kernel:
// only horizontal foreground runs of at least k pixels survive.
func openHorizontal(img *image.Gray, k int) *image.Gray {
	return dilateRuns(erodeRuns(img, k, true), k, true)
}

// openVertical performs morphological opening with a 1 x k kernel.
func openVertical(img *image.Gray, k int) *image.Gray {
	return dilateRuns(erodeRuns(img, k, false), k, false)
}

// erodeRuns is 1-D erosion: a pixel stays foreground only when the whole
// k-length window around it is foreground.
func erodeRuns(img *image.Gray, k int, horizontal bool) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	lines, length := h, w
	if !horizontal {
		lines, length = w, h
	}
	if length < k {
		return out
	}
	half := k / 2
	for l := 0; l < lines; l++ {
		runStart := -1
		for i := 0; i <= length; i++ {
			fg := i < length && at(img, l, i, horizontal) == 255
			if fg && runStart < 0 {
				runStart = i
			}
			if !fg && runStart >= 0 {
				if runLen := i - runStart; runLen >= k {
					for j := runStart + half; j <= runStart+runLen-k+half; j++ {
						set(out, l, j, horizontal)
					}
				}
				runStart = -1
			}
		}
	}
	return out
}

// dilateRuns is 1-D dilation with a k-length kernel.
func dilateRuns(img *image.Gray, k int, horizontal bool) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	lines, length := h, w
	if !horizontal {
		lines, length = w, h
	}
	half := k / 2
	for l := 0; l < lines; l++ {
		for i := 0; i < length; i++ {
			if at(img, l, i, horizontal) != 255 {
				continue
			}
			lo := i - half
			hi := i + (k - 1 - half)
			if lo < 0 {
				lo = 0
			}
			if hi >= length {
				hi = length - 1
			}
			for j := lo; j <= hi; j++ {
				set(out, l, j, horizontal)
			}
		}
	}
	return out
}

// subtractDilated clears from dst every pixel that is foreground in mask or
// adjacent (8-connected) to one.
func subtractDilated(dst, mask *image.Gray) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] != 255 {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					dst.Pix[ny*dst.Stride+nx] = 0
				}
			}
		}
	}
}

// erode applies a kw x kh minimum filter. On a white-background image this
// thickens dark glyph strokes.
func erode(img *image.Gray, kw, kh int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mn := uint8(255)
			for dy := 0; dy < kh; dy++ {
				for dx := 0; dx < kw; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= w || ny >= h {
						continue
					}
					if v := img.Pix[ny*img.Stride+nx]; v < mn {
						mn = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = mn
		}
	}
	return out
}

func at(img *image.Gray, line, i int, horizontal bool) uint8 {
	if horizontal {
		return img.Pix[line*img.Stride+i]
	}
	return img.Pix[i*img.Stride+line]
}

func set(img *image.Gray, line, i int, horizontal bool) {
	if horizontal {
		img.Pix[line*img.Stride+i] = 255
	} else {
		img.Pix[i*img.Stride+line] = 255
	}
}
