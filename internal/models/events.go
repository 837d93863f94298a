package models

import "time"

// AuditEntry is an append-only record of an administrative mutation.
type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ViewEvent records a single album/photo view.
type ViewEvent struct {
	ID        string    `db:"id" json:"id"`
	AlbumID   string    `db:"album_id" json:"album_id"`
	PhotoID   *string   `db:"photo_id" json:"photo_id,omitempty"`
	IPHash    string    `db:"ip_hash" json:"ip_hash"`
	UserAgent *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DownloadEvent records a single photo or batch download.
type DownloadEvent struct {
	ID        string    `db:"id" json:"id"`
	AlbumID   string    `db:"album_id" json:"album_id"`
	PhotoID   *string   `db:"photo_id" json:"photo_id,omitempty"`
	Batch     bool      `db:"batch" json:"batch"`
	IPHash    string    `db:"ip_hash" json:"ip_hash"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AlbumView is an aggregate rollup row for an album's view count, written
// independently of ViewEvent (the two divergent analytics shapes noted as
// an open question are both out of scope for the core; it only appends the
// write-side rows).
type AlbumView struct {
	ID        string    `db:"id" json:"id"`
	AlbumID   string    `db:"album_id" json:"album_id"`
	ViewedAt  time.Time `db:"viewed_at" json:"viewed_at"`
}

// PhotoView is an aggregate rollup row for a photo's view count.
type PhotoView struct {
	ID        string    `db:"id" json:"id"`
	PhotoID   string    `db:"photo_id" json:"photo_id"`
	ViewedAt  time.Time `db:"viewed_at" json:"viewed_at"`
}
