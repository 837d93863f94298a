package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"

	"github.com/maukemana/photocore/internal/apperr"
)

// ValidationResult is what ingest-time validation establishes about an
// uploaded original before it is handed to the processing pipeline.
type ValidationResult struct {
	Valid        bool
	Width        int
	Height       int
	Format       string // detected from magic bytes, not Content-Type
	HasAlpha     bool
	OriginalSize int64
	ContentHash  string // SHA-256 hex
}

// Limits bounds what ValidateImage accepts. Unlike the teacher's
// per-category limits, photo originals get one flat limit — albums
// don't scope uploads by category, only by album.
type Limits struct {
	MaxBytes     int64
	MaxDimension int
}

// DefaultLimits is generous for photographer-grade originals: 50MB,
// 12000px on a side.
var DefaultLimits = Limits{
	MaxBytes:     50 * 1024 * 1024,
	MaxDimension: 12000,
}

// AllowedFormats are the formats an original may arrive in.
var AllowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
	"heic": true,
}

var magicBytes = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
}

// DetectFormat sniffs an image format from its leading bytes.
func DetectFormat(data []byte) string {
	if len(data) < 12 {
		return ""
	}

	if bytes.HasPrefix(data, magicBytes["jpeg"]) {
		return "jpeg"
	}
	if bytes.HasPrefix(data, magicBytes["png"]) {
		return "png"
	}
	if bytes.HasPrefix(data, magicBytes["gif"]) {
		return "gif"
	}
	if bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "webp"
	}
	if bytes.Equal(data[4:8], []byte("ftyp")) {
		switch string(data[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1":
			return "heic"
		}
	}

	return ""
}

// ValidateImage checks size, format, and dimensions against limits, and
// computes the content hash and alpha-channel flag used downstream.
func ValidateImage(data []byte, limits Limits) (*ValidationResult, error) {
	if limits.MaxBytes <= 0 {
		limits = DefaultLimits
	}

	result := &ValidationResult{OriginalSize: int64(len(data))}

	if result.OriginalSize > limits.MaxBytes {
		return nil, apperr.Validation(fmt.Errorf("imaging: file size %d exceeds maximum %d bytes", len(data), limits.MaxBytes))
	}

	format := DetectFormat(data)
	if format == "" {
		return nil, apperr.Validation(fmt.Errorf("imaging: unable to detect image format"))
	}
	if !AllowedFormats[format] {
		return nil, apperr.Validation(fmt.Errorf("imaging: format %s is not allowed", format))
	}
	result.Format = format

	reader := bytes.NewReader(data)
	config, _, err := image.DecodeConfig(reader)
	if err != nil {
		if format != "heic" {
			return nil, apperr.Validation(fmt.Errorf("imaging: decode image: %w", err))
		}
		// HEIC dimensions are established during decode in the pipeline.
	}
	result.Width = config.Width
	result.Height = config.Height

	if config.Width > limits.MaxDimension || config.Height > limits.MaxDimension {
		return nil, apperr.Validation(fmt.Errorf("imaging: dimensions %dx%d exceed maximum %d", config.Width, config.Height, limits.MaxDimension))
	}

	const maxPixels = int64(64 * 1024 * 1024)
	if int64(config.Width)*int64(config.Height) > maxPixels {
		return nil, apperr.Validation(fmt.Errorf("imaging: image too large (potential decompression bomb)"))
	}

	result.ContentHash = ComputeContentHash(data)

	if _, err := reader.Seek(0, io.SeekStart); err == nil {
		if img, _, err := image.Decode(reader); err == nil {
			result.HasAlpha = hasAlphaChannel(img)
		}
	}

	result.Valid = true
	return result, nil
}

func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	default:
		return false
	}
}

// ComputeContentHash returns the SHA-256 hex digest of data.
func ComputeContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
