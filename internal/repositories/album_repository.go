package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/models"
)

const albumsTable = "albums"

// AlbumRepository is the C2 surface for album rows: lookup by id or slug
// (the FTP login rule, spec §4.6), and the lazily recomputed photo count
// (Open Question 3's resolution, recorded in DESIGN.md).
type AlbumRepository struct {
	db dbstore.Adapter
}

func NewAlbumRepository(db dbstore.Adapter) *AlbumRepository {
	return &AlbumRepository{db: db}
}

func (r *AlbumRepository) Create(ctx context.Context, a *models.Album) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UploadToken == "" {
		a.UploadToken = uuid.New().String()
	}
	values := map[string]any{
		"id":                   a.ID,
		"slug":                 a.Slug,
		"title":                a.Title,
		"description":          a.Description,
		"visible":              a.Visible,
		"allow_download":       a.AllowDownload,
		"allow_batch_download": a.AllowBatchDownload,
		"allow_share":          a.AllowShare,
		"show_exif":            a.ShowExif,
		"layout":               a.Layout,
		"sort_rule":            a.SortRule,
		"password":             a.Password,
		"expires_at":           a.ExpiresAt,
		"watermark_enabled":    a.WatermarkEnabled,
		"watermark_type":       a.WatermarkType,
		"watermark_config":     a.WatermarkConfig,
		"color_grading":        a.ColorGrading,
		"upload_token":         a.UploadToken,
	}
	res, err := r.db.Insert(ctx, albumsTable, values)
	if err != nil {
		return err
	}
	if res.InsertedID != "" {
		a.ID = res.InsertedID
	}
	return nil
}

// FindByID loads a non-deleted album by its primary key.
func (r *AlbumRepository) FindByID(ctx context.Context, id string) (*models.Album, error) {
	var a models.Album
	filters := []dbstore.Filter{
		dbstore.Eq("id", id),
		dbstore.Is("deleted_at", nil),
	}
	if err := r.db.FindOne(ctx, albumsTable, filters, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindBySlugOrID implements the FTP login rule from spec §4.6: the
// username is either the album's UUID or its human-chosen slug. A
// UUID-shaped username is looked up by id only, since a slug is never
// itself a valid UUID in this schema; any other username is looked up by
// slug.
func (r *AlbumRepository) FindBySlugOrID(ctx context.Context, usernameOrSlug string) (*models.Album, error) {
	if _, err := uuid.Parse(usernameOrSlug); err == nil {
		return r.FindByID(ctx, usernameOrSlug)
	}
	var a models.Album
	filters := []dbstore.Filter{
		dbstore.Eq("slug", usernameOrSlug),
		dbstore.Is("deleted_at", nil),
	}
	if err := r.db.FindOne(ctx, albumsTable, filters, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RecomputePhotoCount resolves Open Question 3 by recomputing photo_count
// from the photos table on demand rather than maintaining a running
// counter on every photo mutation. Nothing in this module calls it;
// FindByID returns the stored photo_count as it is. selected_count tracks a
// client-side proofing selection outside this core's scope and is left
// untouched here. The count itself is photos.CountByAlbum's job, so the
// completed/non-deleted definition (spec §3, §8 Testable Property 3) lives
// in exactly one place.
func (r *AlbumRepository) RecomputePhotoCount(ctx context.Context, photos *PhotoRepository, albumID string) error {
	photoCount, err := photos.CountByAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	_, err = r.db.Update(ctx, albumsTable, []dbstore.Filter{dbstore.Eq("id", albumID)}, map[string]any{
		"photo_count": photoCount,
		"updated_at":  time.Now().UTC(),
	})
	return err
}

// SoftDelete tombstones an album; its photos are left for a separate
// cleanup pass rather than cascaded synchronously here.
func (r *AlbumRepository) SoftDelete(ctx context.Context, albumID string) error {
	filters := []dbstore.Filter{dbstore.Eq("id", albumID)}
	values := map[string]any{
		"deleted_at": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	}
	_, err := r.db.Update(ctx, albumsTable, filters, values)
	return err
}
