package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// Processor resizes a decoded source image into the rendition ladder,
// optionally compositing a watermark, and encodes each result as JPEG.
// Generalized from the teacher's category-based Processor into the
// spec's thumb/preview/styled ladder.
type Processor struct{}

// NewProcessor builds a Processor. No configuration yet; kept as a type
// so callers don't depend on package-level functions.
func NewProcessor() *Processor {
	return &Processor{}
}

// Rendition is one encoded derivative ready for upload.
type Rendition struct {
	Config    RenditionConfig
	Width     int
	Height    int
	Data      []byte
	SizeBytes int
}

// Process generates every rendition in ladder from src, applying mark
// (nil for no watermark) to each before JPEG encode.
func (p *Processor) Process(src image.Image, ladder []RenditionConfig, mark *Watermark) ([]Rendition, error) {
	results := make([]Rendition, 0, len(ladder))
	for _, cfg := range ladder {
		resized := p.resize(src, cfg)

		if cfg.Kind == RenditionStyled {
			if m, ok := Presets[cfg.Preset]; ok {
				resized = ApplyColorMatrix(resized, m)
			}
		}

		if mark != nil {
			resized = mark.Apply(resized)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: cfg.Quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode %s: %w", cfg.Kind, err)
		}

		bounds := resized.Bounds()
		results = append(results, Rendition{
			Config:    cfg,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Data:      buf.Bytes(),
			SizeBytes: buf.Len(),
		})
	}
	return results, nil
}

// resize fits src within cfg.MaxEdge on its long edge, never upscaling.
func (p *Processor) resize(src image.Image, cfg RenditionConfig) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longEdge := w
	if h > longEdge {
		longEdge = h
	}
	if longEdge <= cfg.MaxEdge {
		return src
	}
	if w >= h {
		return imaging.Resize(src, cfg.MaxEdge, 0, imaging.Lanczos)
	}
	return imaging.Resize(src, 0, cfg.MaxEdge, imaging.Lanczos)
}
