package models

import "time"

// WatermarkType selects the kind of watermark an album applies to its
// derivatives.
type WatermarkType string

const (
	WatermarkNone  WatermarkType = "none"
	WatermarkText  WatermarkType = "text"
	WatermarkImage WatermarkType = "image"
)

// Album is a photographer's named collection of photos.
type Album struct {
	ID                 string        `db:"id" json:"id"`
	Slug               string        `db:"slug" json:"slug"`
	Title              string        `db:"title" json:"title"`
	Description        *string       `db:"description" json:"description,omitempty"`
	Visible            bool          `db:"visible" json:"visible"`
	AllowDownload      bool          `db:"allow_download" json:"allow_download"`
	AllowBatchDownload bool          `db:"allow_batch_download" json:"allow_batch_download"`
	AllowShare         bool          `db:"allow_share" json:"allow_share"`
	ShowExif           bool          `db:"show_exif" json:"show_exif"`
	Layout             string        `db:"layout" json:"layout"`
	SortRule           string        `db:"sort_rule" json:"sort_rule"`
	Password           *string       `db:"password" json:"-"`
	ExpiresAt          *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
	WatermarkEnabled   bool          `db:"watermark_enabled" json:"watermark_enabled"`
	WatermarkType      WatermarkType `db:"watermark_type" json:"watermark_type"`
	WatermarkConfig    []byte        `db:"watermark_config" json:"watermark_config,omitempty"`
	ColorGrading       []byte        `db:"color_grading" json:"color_grading,omitempty"`
	CoverPhotoID       *string       `db:"cover_photo_id" json:"cover_photo_id,omitempty"`
	PhotoCount         int           `db:"photo_count" json:"photo_count"`
	SelectedCount      int           `db:"selected_count" json:"selected_count"`
	ViewCount          int           `db:"view_count" json:"view_count"`
	UploadToken        string        `db:"upload_token" json:"-"`
	DeletedAt          *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the album carries a tombstone.
func (a *Album) IsDeleted() bool { return a.DeletedAt != nil }

// ColorGradingPresets is the decoded shape of Album.ColorGrading: an
// ordered list of enabled style preset identifiers.
type ColorGradingPresets struct {
	Presets []string `json:"presets"`
}

// WatermarkConfigText is the decoded shape of Album.WatermarkConfig when
// WatermarkType is WatermarkText.
type WatermarkConfigText struct {
	Text     string  `json:"text"`
	Opacity  float64 `json:"opacity"`
	Position string  `json:"position"` // e.g. "bottom-right"
}

// WatermarkConfigImage is the decoded shape of Album.WatermarkConfig when
// WatermarkType is WatermarkImage.
type WatermarkConfigImage struct {
	ImageKey string  `json:"image_key"`
	Opacity  float64 `json:"opacity"`
	Position string  `json:"position"`
	ScalePct float64 `json:"scale_pct"`
}
