package imaging

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Decoded is a source image plus the EXIF facts the processing pipeline
// persists on the photo row.
type Decoded struct {
	Image      image.Image
	Rotation   int // normalized to {0, 90, 180, 270} after auto-orient
	CapturedAt *time.Time
}

// Decode auto-orients the source (so Image is already upright) and
// separately extracts the original EXIF orientation tag to record as
// Rotation, plus DateTimeOriginal as CapturedAt. EXIF is read from a
// second reader since exif.Decode consumes the stream and imaging.Decode
// needs its own pass.
func Decode(data []byte) (*Decoded, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	d := &Decoded{Image: img}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Originals without EXIF (PNG, stripped JPEG) are not an error.
		return d, nil
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			d.Rotation = rotationFromEXIFOrientation(v)
		}
	}

	if t, err := x.DateTime(); err == nil {
		d.CapturedAt = &t
	}

	return d, nil
}

// rotationFromEXIFOrientation maps the EXIF orientation tag (1-8) to the
// degrees of clockwise rotation imaging.AutoOrientation already applied,
// per spec: rotation ∈ {0, 90, 180, 270}.
func rotationFromEXIFOrientation(v int) int {
	switch v {
	case 1, 2:
		return 0
	case 3, 4:
		return 180
	case 6, 7:
		return 90
	case 5, 8:
		return 270
	default:
		return 0
	}
}
