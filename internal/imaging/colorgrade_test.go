package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestApplyColorMatrixIdentity(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	out := ApplyColorMatrix(src, Identity)
	r, g, b, _ := out.At(0, 0).RGBA()
	if uint8(r>>8) != 10 || uint8(g>>8) != 20 || uint8(b>>8) != 30 {
		t.Errorf("identity matrix changed pixel: got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestApplyColorMatrixBWDesaturates(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{R: 200, G: 10, B: 10, A: 255})

	out := ApplyColorMatrix(src, Presets["bw"])
	r, g, b, _ := out.At(0, 0).RGBA()
	if r>>8 != g>>8 || g>>8 != b>>8 {
		t.Errorf("bw preset should equalize channels, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestClamp255(t *testing.T) {
	if clamp255(-10) != 0 {
		t.Error("negative values should clamp to 0")
	}
	if clamp255(300) != 255 {
		t.Error("overflow values should clamp to 255")
	}
	if clamp255(128) != 128 {
		t.Error("in-range values should pass through")
	}
}
