package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maukemana/photocore/internal/models"
)

func TestPhotoRepositoryClaimSucceedsOncePerRace(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg", MimeType: "image/jpeg", FileSize: 100}
	require.NoError(t, repo.Create(context.Background(), p))

	claimed, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	// A second claim attempt while the photo is still processing must
	// lose the race: the conditional UPDATE matches zero rows.
	claimed, err = repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, claimed)

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PhotoProcessing, got.Status)
	require.Equal(t, 1, got.Attempts)
}

func TestPhotoRepositoryClaimSkipsDeleted(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg"}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NoError(t, repo.SoftDelete(context.Background(), p.ID))

	claimed, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestPhotoRepositoryCompleteClearsFailureState(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg"}
	require.NoError(t, repo.Create(context.Background(), p))
	_, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Fail(context.Background(), p.ID, "transient: connection reset", false))
	_, err = repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)

	thumb := "processed/thumbs/album-1/" + p.ID + ".jpg"
	preview := "processed/previews/album-1/" + p.ID + ".jpg"
	err = repo.Complete(context.Background(), p.ID, &thumb, &preview, models.StringMap{"bw": "processed/styles/bw/album-1/" + p.ID + ".jpg"}, 2000, 1000, 90, nil)
	require.NoError(t, err)

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PhotoCompleted, got.Status)
	require.Nil(t, got.ErrorMessage)
	require.Equal(t, 2000, got.Width)
	require.Equal(t, "bw", func() string {
		for k := range got.VariantKeys {
			return k
		}
		return ""
	}())
}

func TestPhotoRepositoryFailTerminalVsRetryable(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg"}
	require.NoError(t, repo.Create(context.Background(), p))
	_, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Fail(context.Background(), p.ID, "transient: connection reset", false))
	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PhotoPending, got.Status)

	claimed, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, repo.Fail(context.Background(), p.ID, "original not found", true))
	got, err = repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PhotoFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
}

func TestPhotoRepositoryFindStuckProcessing(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg"}
	require.NoError(t, repo.Create(context.Background(), p))
	_, err := repo.Claim(context.Background(), p.ID)
	require.NoError(t, err)

	// Backdate processing_started_at past the recovery horizon directly
	// in the fake store, simulating a worker that crashed mid-job.
	for _, row := range db.rows[photosTable] {
		if row["id"] == p.ID {
			row["processing_started_at"] = time.Now().UTC().Add(-1 * time.Hour)
		}
	}

	stuck, err := repo.FindStuckProcessing(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	require.Equal(t, p.ID, stuck[0].ID)
}

func TestPhotoRepositoryListAndCountByAlbum(t *testing.T) {
	db := newFakeAdapter()
	repo := NewPhotoRepository(db)

	for i := 0; i < 3; i++ {
		p := &models.Photo{AlbumID: "album-1", Filename: "a.jpg", OriginalKey: "originals/album-1/a.jpg", SortOrder: i}
		require.NoError(t, repo.Create(context.Background(), p))
	}
	other := &models.Photo{AlbumID: "album-2", Filename: "b.jpg", OriginalKey: "originals/album-2/b.jpg"}
	require.NoError(t, repo.Create(context.Background(), other))

	photos, err := repo.ListByAlbum(context.Background(), "album-1")
	require.NoError(t, err)
	require.Len(t, photos, 3)

	// All three are still pending, and CountByAlbum counts completed
	// photos only, so none of them is counted.
	count, err := repo.CountByAlbum(context.Background(), "album-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
