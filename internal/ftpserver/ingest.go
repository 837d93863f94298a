package ftpserver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/models"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/repositories"
	"github.com/maukemana/photocore/internal/storage"
)

const queueName = "process-photo"
const taskType = "process-photo"

// Ingest runs steps 1-6 of spec §4.6 once a staged upload's file handle is
// closed: read the staged bytes, pick a storage key, upload the original,
// insert the pending photos row, enqueue the processing job, then remove
// the local staging file. Every failure in steps 1-5 is logged and
// returned without deleting stagedPath, so the client's next retry on the
// same FTP session finds the file still there.
type Ingest struct {
	store  storage.Adapter
	photos *repositories.PhotoRepository
	queue  *queue.Queue
}

func NewIngest(store storage.Adapter, photos *repositories.PhotoRepository, q *queue.Queue) *Ingest {
	return &Ingest{store: store, photos: photos, queue: q}
}

// Run executes the ingest pipeline for one staged file. albumID names the
// already-authenticated album; stagedPath is the session-local file that
// was just closed; filename is the client-supplied name (extension and
// metadata only — never used as a storage key directly).
func (ig *Ingest) Run(ctx context.Context, albumID, stagedPath, filename string) error {
	data, err := os.ReadFile(stagedPath)
	if err != nil {
		return fmt.Errorf("ftpserver: read staged file: %w", err)
	}

	photoID := uuid.New().String()
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("raw/%s/%s%s", albumID, photoID, ext)

	contentType := mimetype.Detect(data).String()

	_, err = ig.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType, map[string]string{
		"original-filename": filename,
	})
	if err != nil {
		return apperr.Transient(fmt.Errorf("ftpserver: upload original: %w", err))
	}

	photo := &models.Photo{
		ID:          photoID,
		AlbumID:     albumID,
		Filename:    filename,
		OriginalKey: key,
		MimeType:    contentType,
		FileSize:    int64(len(data)),
	}
	if err := ig.photos.Create(ctx, photo); err != nil {
		return fmt.Errorf("ftpserver: insert photo row: %w", err)
	}

	job := processJob{PhotoID: photo.ID, AlbumID: albumID, OriginalKey: key}
	if err := ig.queue.Enqueue(queueName, taskType, job, queue.EnqueueOptions{JobID: photo.ID}); err != nil {
		slog.Error("ftpserver: enqueue process-photo failed, photo row left pending for a later recovery sweep",
			"photoId", photo.ID, "albumId", albumID, "error", err)
		return fmt.Errorf("ftpserver: enqueue job: %w", err)
	}

	if err := os.Remove(stagedPath); err != nil {
		slog.Warn("ftpserver: enqueued successfully but failed to clean up staging file",
			"path", stagedPath, "error", err)
	}
	return nil
}

// processJob mirrors internal/processing.Job's wire shape; duplicated
// rather than imported to keep internal/ftpserver from depending on
// internal/processing for a three-field struct.
type processJob struct {
	PhotoID     string `json:"photoId"`
	AlbumID     string `json:"albumId"`
	OriginalKey string `json:"originalKey"`
}
