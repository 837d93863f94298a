package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/maukemana/photocore/internal/models"
)

func TestAlbumRepositoryCreateAssignsIDAndToken(t *testing.T) {
	db := newFakeAdapter()
	repo := NewAlbumRepository(db)

	a := &models.Album{Slug: "wedding-2026", Title: "Wedding"}
	require.NoError(t, repo.Create(context.Background(), a))
	require.NotEmpty(t, a.ID)
	require.NotEmpty(t, a.UploadToken)

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
}

func TestAlbumRepositoryFindBySlugOrID(t *testing.T) {
	db := newFakeAdapter()
	repo := NewAlbumRepository(db)

	a := &models.Album{Slug: "wedding-2026", Title: "Wedding"}
	require.NoError(t, repo.Create(context.Background(), a))

	byID, err := repo.FindBySlugOrID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, byID.ID)

	bySlug, err := repo.FindBySlugOrID(context.Background(), "wedding-2026")
	require.NoError(t, err)
	require.Equal(t, a.ID, bySlug.ID)

	_, err = repo.FindBySlugOrID(context.Background(), "nonexistent-slug")
	require.Error(t, err)
}

func TestAlbumRepositoryFindByIDExcludesDeleted(t *testing.T) {
	db := newFakeAdapter()
	repo := NewAlbumRepository(db)

	a := &models.Album{Slug: "wedding-2026", Title: "Wedding"}
	require.NoError(t, repo.Create(context.Background(), a))
	require.NoError(t, repo.SoftDelete(context.Background(), a.ID))

	_, err := repo.FindByID(context.Background(), a.ID)
	require.Error(t, err)
}

// TestAlbumRepositoryRecomputePhotoCount covers §8 Testable Property 3:
// photo_count only counts photos that are both completed and non-deleted —
// pending/processing/failed rows and soft-deleted rows must not inflate it.
func TestAlbumRepositoryRecomputePhotoCount(t *testing.T) {
	db := newFakeAdapter()
	albums := NewAlbumRepository(db)
	photos := NewPhotoRepository(db)

	a := &models.Album{Slug: "wedding-2026", Title: "Wedding"}
	require.NoError(t, albums.Create(context.Background(), a))

	for i := 0; i < 4; i++ {
		p := &models.Photo{AlbumID: a.ID, Filename: "a.jpg", OriginalKey: "originals/x/a.jpg"}
		require.NoError(t, photos.Create(context.Background(), p))
		claimed, err := photos.Claim(context.Background(), p.ID)
		require.NoError(t, err)
		require.True(t, claimed)
		require.NoError(t, photos.Complete(context.Background(), p.ID, nil, nil, nil, 0, 0, 0, nil))
	}

	pending := &models.Photo{AlbumID: a.ID, Filename: "pending.jpg", OriginalKey: "originals/x/pending.jpg"}
	require.NoError(t, photos.Create(context.Background(), pending))

	deleted := &models.Photo{AlbumID: a.ID, Filename: "b.jpg", OriginalKey: "originals/x/b.jpg"}
	require.NoError(t, photos.Create(context.Background(), deleted))
	claimed, err := photos.Claim(context.Background(), deleted.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, photos.Complete(context.Background(), deleted.ID, nil, nil, nil, 0, 0, 0, nil))
	require.NoError(t, photos.SoftDelete(context.Background(), deleted.ID))

	require.NoError(t, albums.RecomputePhotoCount(context.Background(), photos, a.ID))

	got, err := albums.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.PhotoCount)
}
