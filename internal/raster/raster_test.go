package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(64 + x*64/w)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestLinearClampsAndKeepsAlpha(t *testing.T) {
	src := solid(2, 2, color.NRGBA{R: 10, G: 128, B: 250, A: 77})
	out := Linear(src, 2.0, -128)

	got := out.NRGBAAt(1, 1)
	assert.Equal(t, color.NRGBA{R: 0, G: 128, B: 255, A: 77}, got)
	assert.Equal(t, uint8(10), src.NRGBAAt(1, 1).R, "input must not be modified")
}

func TestNormalizeStretchesRange(t *testing.T) {
	out := Normalize(gradient(100, 4))

	var lo, hi uint8 = 255, 0
	for x := 0; x < 100; x++ {
		v := out.NRGBAAt(x, 0).R
		lo = min(lo, v)
		hi = max(hi, v)
	}
	assert.Equal(t, uint8(0), lo)
	assert.Equal(t, uint8(255), hi)
}

func TestNormalizeFlatImageUnchanged(t *testing.T) {
	c := color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	out := Normalize(solid(3, 3, c))
	assert.Equal(t, c, out.NRGBAAt(2, 2))
}

func TestThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	out := Threshold(img, 180)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 0, A: 255}, out.NRGBAAt(1, 0))
}

func TestMedianRemovesSaltNoise(t *testing.T) {
	img := solid(5, 5, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	img.SetNRGBA(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	for _, size := range []int{2, 3, 5} {
		out := Median(img, size)
		require.Equal(t, img.Bounds(), out.Bounds())
		assert.Equal(t, uint8(20), out.NRGBAAt(2, 2).R, "size %d", size)
	}
}

func TestMedianSizeOneIsIdentity(t *testing.T) {
	img := gradient(8, 8)
	out := Median(img, 1)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestModulateIdentity(t *testing.T) {
	c := color.NRGBA{R: 180, G: 40, B: 90, A: 255}
	out := Modulate(solid(2, 2, c), 1, 1, 0)
	got := out.NRGBAAt(0, 0)
	assert.InDelta(t, int(c.R), int(got.R), 1)
	assert.InDelta(t, int(c.G), int(got.G), 1)
	assert.InDelta(t, int(c.B), int(got.B), 1)
}

func TestModulateDesaturate(t *testing.T) {
	out := Modulate(solid(1, 1, color.NRGBA{R: 200, G: 50, B: 50, A: 255}), 1, 0, 0)
	got := out.NRGBAAt(0, 0)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.G, got.B)
}

func TestModulateHueRotation(t *testing.T) {
	out := Modulate(solid(1, 1, color.NRGBA{R: 255, G: 0, B: 0, A: 255}), 1, 1, 120)
	got := out.NRGBAAt(0, 0)
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 0, A: 255}, got)
}

func TestHSLRoundTrip(t *testing.T) {
	for _, c := range [][3]uint8{{0, 0, 0}, {255, 255, 255}, {12, 200, 99}, {250, 10, 130}} {
		h, s, l := rgbToHSL(c[0], c[1], c[2])
		r, g, b := hslToRGB(h, s, l)
		assert.InDelta(t, int(c[0]), int(r), 1)
		assert.InDelta(t, int(c[1]), int(g), 1)
		assert.InDelta(t, int(c[2]), int(b), 1)
	}
}
