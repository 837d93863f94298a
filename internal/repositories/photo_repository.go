package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/models"
)

const photosTable = "photos"

// PhotoRepository is the C2 surface for the processing pipeline's photo
// rows: the claim, the terminal commit, and the crash-recovery sweep.
type PhotoRepository struct {
	db dbstore.Adapter
}

func NewPhotoRepository(db dbstore.Adapter) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts a new photo row in PhotoPending status, as performed by
// the FTP ingest pipeline once an upload lands on disk.
func (r *PhotoRepository) Create(ctx context.Context, p *models.Photo) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	values := map[string]any{
		"id":           p.ID,
		"album_id":     p.AlbumID,
		"filename":     p.Filename,
		"original_key": p.OriginalKey,
		"mime_type":    p.MimeType,
		"file_size":    p.FileSize,
		"sort_order":   p.SortOrder,
		"status":       models.PhotoPending,
		"attempts":     0,
	}
	res, err := r.db.Insert(ctx, photosTable, values)
	if err != nil {
		return err
	}
	if res.InsertedID != "" {
		p.ID = res.InsertedID
	}
	return nil
}

// FindByID loads a single photo, including soft-deleted rows (the caller
// decides whether a tombstoned photo is meaningful).
func (r *PhotoRepository) FindByID(ctx context.Context, id string) (*models.Photo, error) {
	var p models.Photo
	if err := r.db.FindOne(ctx, photosTable, []dbstore.Filter{dbstore.Eq("id", id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Claim is the single atomic conditional UPDATE at the head of the
// processing pipeline (spec §4.5 step 1): it moves a photo not currently
// mid-flight into PhotoProcessing, stamps processing_started_at, and bumps
// attempts — all three mutate only if the WHERE clause still matches, so
// two concurrent workers racing the same photoId can claim it at most
// once. A non-PhotoProcessing current status (pending, failed, or
// completed being reprocessed) is eligible; a soft-deleted or already
// mid-flight photo is not. claimed reports whether this call won the race;
// the caller drops the job silently when it is false.
func (r *PhotoRepository) Claim(ctx context.Context, photoID string) (claimed bool, err error) {
	now := time.Now().UTC()
	filters := []dbstore.Filter{
		dbstore.Eq("id", photoID),
		dbstore.NotIs("status", models.PhotoProcessing),
		dbstore.Is("deleted_at", nil),
	}
	values := map[string]any{
		"status":                models.PhotoProcessing,
		"processing_started_at": now,
		"attempts":              dbstore.Incr(1),
		"error_message":         nil,
		"updated_at":            now,
	}
	res, err := r.db.Update(ctx, photosTable, filters, values)
	if err != nil {
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// Complete is the terminal success UPDATE (spec §4.5 step 6): it writes
// the derived variant keys, dimensions, and the derived-EXIF fields, and
// flips status to PhotoCompleted in one statement.
func (r *PhotoRepository) Complete(ctx context.Context, photoID string, thumbKey, previewKey *string, variantKeys models.StringMap, width, height, rotation int, capturedAt *time.Time) error {
	filters := []dbstore.Filter{dbstore.Eq("id", photoID)}
	values := map[string]any{
		"status":                models.PhotoCompleted,
		"thumb_key":             thumbKey,
		"preview_key":           previewKey,
		"variant_keys":          variantKeys,
		"width":                 width,
		"height":                height,
		"rotation":              rotation,
		"captured_at":           capturedAt,
		"error_message":         nil,
		"processing_started_at": nil,
		"updated_at":            time.Now().UTC(),
	}
	_, err := r.db.Update(ctx, photosTable, filters, values)
	return err
}

// Fail is the terminal (or transient-awaiting-retry) failure UPDATE. When
// terminal is true the photo moves to PhotoFailed; otherwise it is handed
// back to PhotoPending so a later retry (or the recovery sweep) can claim
// it again, per the retry table in spec §4.5.
func (r *PhotoRepository) Fail(ctx context.Context, photoID string, message string, terminal bool) error {
	status := models.PhotoPending
	if terminal {
		status = models.PhotoFailed
	}
	filters := []dbstore.Filter{dbstore.Eq("id", photoID)}
	values := map[string]any{
		"status":                status,
		"error_message":         message,
		"processing_started_at": nil,
		"updated_at":            time.Now().UTC(),
	}
	_, err := r.db.Update(ctx, photosTable, filters, values)
	return err
}

// FindStuckProcessing finds photos stranded in PhotoProcessing whose
// processing_started_at predates the recovery horizon, for the crash
// recovery sweep (spec §4.5, "Crash recovery").
func (r *PhotoRepository) FindStuckProcessing(ctx context.Context, horizon time.Duration) ([]models.Photo, error) {
	cutoff := time.Now().UTC().Add(-horizon)
	filters := []dbstore.Filter{
		dbstore.Eq("status", models.PhotoProcessing),
		dbstore.Lt("processing_started_at", cutoff),
		dbstore.Is("deleted_at", nil),
	}
	var photos []models.Photo
	if err := r.db.FindMany(ctx, photosTable, filters, nil, 0, 0, &photos); err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return photos, nil
}

// ListByAlbum returns an album's non-deleted photos in display order.
func (r *PhotoRepository) ListByAlbum(ctx context.Context, albumID string) ([]models.Photo, error) {
	filters := []dbstore.Filter{
		dbstore.Eq("album_id", albumID),
		dbstore.Is("deleted_at", nil),
	}
	order := []dbstore.Order{{Column: "sort_order", Direction: dbstore.Asc}}
	var photos []models.Photo
	if err := r.db.FindMany(ctx, photosTable, filters, order, 0, 0, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// CountByAlbum counts an album's non-deleted, completed photos — the
// photo_count invariant from spec §3 / §8 Testable Property 3 — for
// AlbumRepository.RecomputePhotoCount.
func (r *PhotoRepository) CountByAlbum(ctx context.Context, albumID string) (int64, error) {
	filters := []dbstore.Filter{
		dbstore.Eq("album_id", albumID),
		dbstore.Eq("status", models.PhotoCompleted),
		dbstore.Is("deleted_at", nil),
	}
	return r.db.Count(ctx, photosTable, filters)
}

// SoftDelete tombstones a photo without removing its row, so already
// issued CDN URLs 404 instead of dangling on an orphaned key.
func (r *PhotoRepository) SoftDelete(ctx context.Context, photoID string) error {
	filters := []dbstore.Filter{dbstore.Eq("id", photoID)}
	values := map[string]any{
		"deleted_at": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	}
	_, err := r.db.Update(ctx, photosTable, filters, values)
	return err
}
