// Package raster implements the pixel operations that have no direct
// counterpart in the imaging library. Every function returns a new image and
// leaves its input untouched.
package raster

import (
	"image"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Linear maps every color channel v to slope*v + intercept. Alpha is kept.
func Linear(img image.Image, slope, intercept float64) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp(slope*float64(i) + intercept)
	}
	return applyLUT(img, &lut)
}

// Normalize stretches luminance so that the 1st percentile maps to black and
// the 99th to white. Flat images are returned unchanged.
func Normalize(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	var hist [256]int
	total := 0
	forEachPixel(dst, func(p []uint8) {
		hist[luma(p[0], p[1], p[2])]++
		total++
	})
	if total == 0 {
		return dst
	}
	low := percentile(&hist, total, 0.01)
	high := percentile(&hist, total, 0.99)
	if high <= low {
		return dst
	}
	scale := 255 / float64(high-low)
	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp((float64(i) - float64(low)) * scale)
	}
	return applyLUT(dst, &lut)
}

// Threshold turns pixels with luminance >= level white and all others black.
func Threshold(img image.Image, level int) *image.NRGBA {
	dst := imaging.Clone(img)
	forEachPixel(dst, func(p []uint8) {
		v := uint8(0)
		if int(luma(p[0], p[1], p[2])) >= level {
			v = 255
		}
		p[0], p[1], p[2] = v, v, v
	})
	return dst
}

// Median replaces every channel value with the median of a size x size
// neighbourhood. Edges are handled by clamping coordinates.
func Median(img image.Image, size int) *image.NRGBA {
	src := imaging.Clone(img)
	if size <= 1 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	before := (size - 1) / 2
	after := size / 2

	parallelRows(h, func(y0, y1 int) {
		window := make([]uint8, 0, size*size)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				d := dst.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					window = window[:0]
					for dy := -before; dy <= after; dy++ {
						yy := clampInt(y+dy, 0, h-1)
						for dx := -before; dx <= after; dx++ {
							xx := clampInt(x+dx, 0, w-1)
							window = append(window, src.Pix[src.PixOffset(xx, yy)+c])
						}
					}
					dst.Pix[d+c] = median(window)
				}
				dst.Pix[d+3] = src.Pix[src.PixOffset(x, y)+3]
			}
		}
	})
	return dst
}

// Modulate scales lightness by brightness and saturation by saturation, and
// rotates hue by the given number of degrees.
func Modulate(img image.Image, brightness, saturation, hue float64) *image.NRGBA {
	dst := imaging.Clone(img)
	b := dst.Bounds()
	parallelRows(b.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
			for i := 0; i < len(row); i += 4 {
				h, s, l := rgbToHSL(row[i], row[i+1], row[i+2])
				h = math.Mod(h+hue, 360)
				if h < 0 {
					h += 360
				}
				s = math.Min(s*saturation, 1)
				l = math.Min(l*brightness, 1)
				row[i], row[i+1], row[i+2] = hslToRGB(h, s, l)
			}
		}
	})
	return dst
}

func applyLUT(img image.Image, lut *[256]uint8) *image.NRGBA {
	dst := imaging.Clone(img)
	forEachPixel(dst, func(p []uint8) {
		p[0], p[1], p[2] = lut[p[0]], lut[p[1]], lut[p[2]]
	})
	return dst
}

func forEachPixel(img *image.NRGBA, fn func(p []uint8)) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i : i+4 : i+4])
		}
	}
}

// parallelRows splits [0, h) into bands processed concurrently.
func parallelRows(h int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 {
		fn(0, h)
		return
	}
	band := (h + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y := 0; y < h; y += band {
		y0, y1 := y, min(y+band, h)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

func percentile(hist *[256]int, total int, q float64) int {
	target := int(math.Ceil(q * float64(total)))
	if target < 1 {
		target = 1
	}
	acc := 0
	for i, n := range hist {
		acc += n
		if acc >= target {
			return i
		}
	}
	return 255
}

func median(values []uint8) uint8 {
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
	return values[len(values)/2]
}

func luma(r, g, b uint8) uint8 {
	return uint8(0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b) + 0.5)
}

func clamp(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
