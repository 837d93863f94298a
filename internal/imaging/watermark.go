package imaging

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Position names the corner a watermark is anchored to.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	PositionCenter      Position = "center"
)

const watermarkMargin = 16

// Watermark composites either a text caption or an overlay image onto a
// rendition, applied after rotation and before JPEG encode (spec §4.5).
// Exactly one of Text or Overlay should be set.
type Watermark struct {
	Text     string
	Overlay  image.Image // pre-decoded watermark source image
	Opacity  float64     // 0-1
	Position Position
	ScalePct float64 // Overlay width as a fraction of the target image width, 0 means natural size
}

// Apply returns a new image with the watermark composited onto src.
func (w *Watermark) Apply(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, image.Point{}, draw.Src)

	if w.Overlay != nil {
		w.applyImage(dst)
	} else if w.Text != "" {
		w.applyText(dst)
	}

	return dst
}

func (w *Watermark) applyImage(dst *image.RGBA) {
	bounds := dst.Bounds()
	overlayBounds := w.Overlay.Bounds()

	targetW := overlayBounds.Dx()
	if w.ScalePct > 0 {
		targetW = int(float64(bounds.Dx()) * w.ScalePct)
	}
	targetH := overlayBounds.Dy() * targetW / overlayBounds.Dx()
	if targetW <= 0 || targetH <= 0 {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), w.Overlay, overlayBounds, xdraw.Over, nil)

	origin := w.anchor(bounds, targetW, targetH)
	mask := opacityMask(w.Opacity)
	draw.DrawMask(dst, image.Rect(origin.X, origin.Y, origin.X+targetW, origin.Y+targetH),
		scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

func (w *Watermark) applyText(dst *image.RGBA) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, w.Text).Ceil()
	textH := face.Metrics().Height.Ceil()

	origin := w.anchor(dst.Bounds(), textW, textH)
	alpha := uint8(255 * clampOpacity(w.Opacity))

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: alpha}),
		Face: face,
		Dot:  fixed.P(origin.X, origin.Y+face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(w.Text)
}

func (w *Watermark) anchor(bounds image.Rectangle, width, height int) image.Point {
	switch w.Position {
	case PositionTopLeft:
		return image.Pt(bounds.Min.X+watermarkMargin, bounds.Min.Y+watermarkMargin)
	case PositionTopRight:
		return image.Pt(bounds.Max.X-width-watermarkMargin, bounds.Min.Y+watermarkMargin)
	case PositionBottomLeft:
		return image.Pt(bounds.Min.X+watermarkMargin, bounds.Max.Y-height-watermarkMargin)
	case PositionCenter:
		return image.Pt((bounds.Dx()-width)/2, (bounds.Dy()-height)/2)
	default: // PositionBottomRight
		return image.Pt(bounds.Max.X-width-watermarkMargin, bounds.Max.Y-height-watermarkMargin)
	}
}

func opacityMask(opacity float64) *image.Uniform {
	return image.NewUniform(color.Alpha{A: uint8(255 * clampOpacity(opacity))})
}

func clampOpacity(o float64) float64 {
	if o <= 0 {
		return 1
	}
	if o > 1 {
		return 1
	}
	return o
}
