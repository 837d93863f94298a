package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/models"
)

const (
	photoGroupsTable           = "photo_groups"
	photoGroupAssignmentsTable = "photo_group_assignments"
)

// PhotoGroupRepository manages an album's optional photo groupings.
type PhotoGroupRepository struct {
	db dbstore.Adapter
}

func NewPhotoGroupRepository(db dbstore.Adapter) *PhotoGroupRepository {
	return &PhotoGroupRepository{db: db}
}

func (r *PhotoGroupRepository) Create(ctx context.Context, g *models.PhotoGroup) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	values := map[string]any{
		"id":         g.ID,
		"album_id":   g.AlbumID,
		"name":       g.Name,
		"sort_order": g.SortOrder,
	}
	res, err := r.db.Insert(ctx, photoGroupsTable, values)
	if err != nil {
		return err
	}
	if res.InsertedID != "" {
		g.ID = res.InsertedID
	}
	return nil
}

// ListByAlbum returns an album's non-deleted groups in display order.
func (r *PhotoGroupRepository) ListByAlbum(ctx context.Context, albumID string) ([]models.PhotoGroup, error) {
	filters := []dbstore.Filter{
		dbstore.Eq("album_id", albumID),
		dbstore.Is("deleted_at", nil),
	}
	order := []dbstore.Order{{Column: "sort_order", Direction: dbstore.Asc}}
	var groups []models.PhotoGroup
	if err := r.db.FindMany(ctx, photoGroupsTable, filters, order, 0, 0, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Assign links a photo to a group at a given sort position, replacing any
// prior assignment for that photo (a photo belongs to at most one group).
func (r *PhotoGroupRepository) Assign(ctx context.Context, photoID, groupID string, sortOrder int) error {
	if _, err := r.db.Delete(ctx, photoGroupAssignmentsTable, []dbstore.Filter{
		dbstore.Eq("photo_id", photoID),
	}); err != nil {
		return err
	}
	_, err := r.db.Insert(ctx, photoGroupAssignmentsTable, map[string]any{
		"photo_id":   photoID,
		"group_id":   groupID,
		"sort_order": sortOrder,
	})
	return err
}

// ListAssignments returns every assignment for the given group, ordered
// for display.
func (r *PhotoGroupRepository) ListAssignments(ctx context.Context, groupID string) ([]models.PhotoGroupAssignment, error) {
	filters := []dbstore.Filter{dbstore.Eq("group_id", groupID)}
	order := []dbstore.Order{{Column: "sort_order", Direction: dbstore.Asc}}
	var assignments []models.PhotoGroupAssignment
	if err := r.db.FindMany(ctx, photoGroupAssignmentsTable, filters, order, 0, 0, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// SoftDelete tombstones a group; assignments are left in place since a
// deleted group is filtered out at read time, not cascaded.
func (r *PhotoGroupRepository) SoftDelete(ctx context.Context, groupID string) error {
	filters := []dbstore.Filter{dbstore.Eq("id", groupID)}
	values := map[string]any{
		"deleted_at": time.Now().UTC(),
	}
	_, err := r.db.Update(ctx, photoGroupsTable, filters, values)
	return err
}
