package imaging

import (
	"image"
	"image/color"
)

// ColorMatrix is a 3x4 affine transform applied to each pixel's RGB
// channels: out = M * [r g b 1]. Alpha passes through unchanged.
type ColorMatrix [12]float64

// Identity leaves pixels unchanged; used as the base a preset's matrix
// starts from.
var Identity = ColorMatrix{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
}

// Presets maps a color-grading preset name (from an album's
// color_grading JSON) to its matrix. The set is intentionally small and
// hand-tuned; presets are additive, never destructive of the original.
var Presets = map[string]ColorMatrix{
	"bw": { // desaturate via luminance weights
		0.299, 0.587, 0.114, 0,
		0.299, 0.587, 0.114, 0,
		0.299, 0.587, 0.114, 0,
	},
	"warm": { // push toward amber
		1.08, 0, 0, 6,
		0, 1.0, 0, 2,
		0, 0, 0.92, -4,
	},
	"cool": { // push toward blue
		0.92, 0, 0, -4,
		0, 1.0, 0, 0,
		0, 0, 1.08, 6,
	},
	"fade": { // lifted blacks, compressed contrast
		0.85, 0, 0, 20,
		0, 0.85, 0, 20,
		0, 0, 0.85, 20,
	},
}

// ApplyColorMatrix returns a new image with m applied to every pixel.
func ApplyColorMatrix(src image.Image, m ColorMatrix) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			// RGBA() returns 16-bit premultiplied values; normalize to 0-255.
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)

			outR := clamp255(m[0]*rf + m[1]*gf + m[2]*bf + m[3])
			outG := clamp255(m[4]*rf + m[5]*gf + m[6]*bf + m[7])
			outB := clamp255(m[8]*rf + m[9]*gf + m[10]*bf + m[11])

			dst.Set(x, y, color.RGBA{R: outR, G: outG, B: outB, A: uint8(a >> 8)})
		}
	}

	return dst
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
