// Package bootstrap holds the setup steps a fresh deployment needs
// before it can serve traffic: connecting to the database with retry,
// making sure the storage bucket exists, and seeding the first admin
// account. None of them runs on the request path: cmd/seed calls
// SeedAdmin, the daemons call ConnectDatabase, and no binary in this
// module calls EnsureBucket.
package bootstrap

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/models"
	"github.com/maukemana/photocore/internal/repositories"
	"github.com/maukemana/photocore/internal/storage"
)

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 64
	saltLen          = 16
)

// connectAttempts/connectBaseDelay bound the startup retry loop in
// ConnectDatabase: five tries with 1s/2s/4s/8s waits between them, about
// 15s in total before giving up — long enough to ride out a database restart, short
// enough that a genuinely dead dependency fails fast per §6.6.
const (
	connectAttempts  = 5
	connectBaseDelay = time.Second
)

// ConnectDatabase dials cfg with retry-and-backoff, the startup half of
// §6.6's exit code contract: a daemon's main distinguishes "could never
// reach the database" (exit 2, unrecoverable dependency loss) from a
// bad flag or missing credential (exit 1, config error) by calling this
// instead of a single dbstore.Initialize.
func ConnectDatabase(ctx context.Context, cfg dbstore.Config) (dbstore.Adapter, error) {
	var lastErr error
	delay := connectBaseDelay
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := dbstore.Initialize(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Warn("bootstrap: database connect attempt failed", "attempt", attempt, "of", connectAttempts, "error", err)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("bootstrap: database unreachable after %d attempts: %w", connectAttempts, lastErr)
}

// EnsureBucket type-asserts the adapter for storage.BucketEnsurer and
// calls it if present. Most adapters (and every test fake) have no
// bucket to create, so this is a no-op for them.
func EnsureBucket(ctx context.Context, adapter storage.Adapter) error {
	return storage.EnsureBucket(ctx, adapter)
}

// SeedAdmin idempotently creates or rotates the credentials of an admin
// account: if email already exists its password hash is rotated in
// place, otherwise a new active admin row is created. When
// demoteOthers is true, every other active admin is deactivated so
// exactly one admin account remains active; callers must opt into this
// explicitly since it is otherwise silent data loss for anyone else's
// session.
func SeedAdmin(ctx context.Context, users *repositories.UserRepository, email, password string, demoteOthers bool) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := users.UpdatePasswordHash(ctx, existing.ID, hash); err != nil {
			return fmt.Errorf("bootstrap: rotate admin password: %w", err)
		}
		existing.PasswordHash = &hash
	case apperr.IsNotFound(err):
		u := &models.User{
			Email:        email,
			PasswordHash: &hash,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("bootstrap: create admin: %w", err)
		}
		existing = u
	default:
		return fmt.Errorf("bootstrap: look up admin: %w", err)
	}

	if !demoteOthers {
		return nil
	}

	others, err := users.ListActiveAdmins(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("bootstrap: list other admins: %w", err)
	}
	for _, other := range others {
		if err := users.Deactivate(ctx, other.ID); err != nil {
			return fmt.Errorf("bootstrap: deactivate admin %s: %w", other.ID, err)
		}
	}
	return nil
}

// hashPassword derives a PBKDF2-SHA512 key under a fresh random salt and
// encodes it as "salt:iterations:hash", each segment base64-raw-url.
func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("bootstrap: generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return strings.Join([]string{
		base64.RawURLEncoding.EncodeToString(salt),
		strconv.Itoa(pbkdf2Iterations),
		base64.RawURLEncoding.EncodeToString(key),
	}, ":"), nil
}

// VerifyPassword checks password against a hash produced by
// hashPassword, used by the (out-of-core) admin login surface.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return false, fmt.Errorf("bootstrap: malformed password hash")
	}
	salt, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false, fmt.Errorf("bootstrap: decode salt: %w", err)
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil {
		return false, fmt.Errorf("bootstrap: decode iterations: %w", err)
	}
	want, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("bootstrap: decode hash: %w", err)
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
