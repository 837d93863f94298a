package models

import "time"

// PhotoStatus is the photo's position in the processing state machine.
type PhotoStatus string

const (
	PhotoPending    PhotoStatus = "pending"
	PhotoProcessing PhotoStatus = "processing"
	PhotoCompleted  PhotoStatus = "completed"
	PhotoFailed     PhotoStatus = "failed"
)

// Photo is one uploaded original and its derived variants.
type Photo struct {
	ID                  string            `db:"id" json:"id"`
	AlbumID             string            `db:"album_id" json:"album_id"`
	Filename            string            `db:"filename" json:"filename"`
	OriginalKey         string            `db:"original_key" json:"original_key"`
	ThumbKey            *string           `db:"thumb_key" json:"thumb_key,omitempty"`
	PreviewKey          *string           `db:"preview_key" json:"preview_key,omitempty"`
	VariantKeys         StringMap         `db:"variant_keys" json:"variant_keys,omitempty"`
	MimeType            string            `db:"mime_type" json:"mime_type"`
	FileSize            int64             `db:"file_size" json:"file_size"`
	Width               int               `db:"width" json:"width"`
	Height              int               `db:"height" json:"height"`
	Rotation            int               `db:"rotation" json:"rotation"`
	CapturedAt          *time.Time        `db:"captured_at" json:"captured_at,omitempty"`
	SortOrder           int               `db:"sort_order" json:"sort_order"`
	Status              PhotoStatus       `db:"status" json:"status"`
	ErrorMessage        *string           `db:"error_message" json:"error_message,omitempty"`
	Attempts            int               `db:"attempts" json:"attempts"`
	ProcessingStartedAt *time.Time        `db:"processing_started_at" json:"processing_started_at,omitempty"`
	DeletedAt           *time.Time        `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the photo carries a tombstone.
func (p *Photo) IsDeleted() bool { return p.DeletedAt != nil }

// IsTerminal reports whether status is one of the two terminal states for a
// single processing run.
func (p *Photo) IsTerminal() bool {
	return p.Status == PhotoCompleted || p.Status == PhotoFailed
}

// PhotoGroup is an optional grouping of photos within an album.
type PhotoGroup struct {
	ID        string     `db:"id" json:"id"`
	AlbumID   string     `db:"album_id" json:"album_id"`
	Name      string     `db:"name" json:"name"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PhotoGroupAssignment links a Photo to a PhotoGroup.
type PhotoGroupAssignment struct {
	PhotoID   string `db:"photo_id" json:"photo_id"`
	GroupID   string `db:"group_id" json:"group_id"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}
