package models

import "time"

// UserRole is a user's permission level.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RolePhotographer UserRole = "photographer"
	RoleRetoucher    UserRole = "retoucher"
	RoleGuest        UserRole = "guest"
)

// User is an account on the platform. The core never authenticates
// end-users itself; this model exists so bootstrap/admin-seed and
// repositories can manage the row.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the user carries a tombstone.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }
