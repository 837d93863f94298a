package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/models"
)

const usersTable = "users"

// UserRepository handles user account rows, used by bootstrap's
// SeedAdmin and by the (out-of-core) admin surface's authentication.
type UserRepository struct {
	db dbstore.Adapter
}

func NewUserRepository(db dbstore.Adapter) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a non-deleted user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	filters := []dbstore.Filter{
		dbstore.Eq("email", email),
		dbstore.Is("deleted_at", nil),
	}
	if err := r.db.FindOne(ctx, usersTable, filters, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	values := map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          u.Role,
		"is_active":     u.IsActive,
	}
	res, err := r.db.Insert(ctx, usersTable, values)
	if err != nil {
		return err
	}
	if res.InsertedID != "" {
		u.ID = res.InsertedID
	}
	return nil
}

// UpdatePasswordHash overwrites a user's stored credential, used by
// SeedAdmin when the admin account already exists.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	filters := []dbstore.Filter{dbstore.Eq("id", userID)}
	_, err := r.db.Update(ctx, usersTable, filters, map[string]any{"password_hash": passwordHash})
	return err
}

// ListActiveAdmins returns every non-deleted, active admin except
// exceptUserID, used by SeedAdmin's opt-in "exactly one active admin"
// enforcement.
func (r *UserRepository) ListActiveAdmins(ctx context.Context, exceptUserID string) ([]models.User, error) {
	filters := []dbstore.Filter{
		dbstore.Eq("role", models.RoleAdmin),
		dbstore.Eq("is_active", true),
		dbstore.Neq("id", exceptUserID),
		dbstore.Is("deleted_at", nil),
	}
	var admins []models.User
	if err := r.db.FindMany(ctx, usersTable, filters, nil, 0, 0, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// Deactivate flips is_active to false without tombstoning the row.
func (r *UserRepository) Deactivate(ctx context.Context, userID string) error {
	filters := []dbstore.Filter{dbstore.Eq("id", userID)}
	_, err := r.db.Update(ctx, usersTable, filters, map[string]any{"is_active": false})
	return err
}
