// Package dbstore provides a uniform, table-oriented query interface over
// either a relational engine (postgres.go, via sqlx + squirrel) or a
// hosted BaaS-style REST backend (restapi.go). Both honor the same Filter
// sum type; see filter.go for the decorated-string boundary conversion
// used only by the restapi adapter.
package dbstore

import "context"

// Result is the adapter-normalized outcome of a mutation.
type Result struct {
	RowsAffected int64
	InsertedID   string
}

// Adapter is the uniform database contract. FindOne/FindMany decode rows
// into dest (a pointer to a struct, or a pointer to a slice of structs,
// tagged with `db:"..."`). Adapters normalize errors through
// internal/apperr: ErrNotFound for FindOne's zero-row case, ErrTransient
// for connection failures, ErrConflict for unique-constraint violations.
type Adapter interface {
	FindOne(ctx context.Context, table string, filters []Filter, dest any) error
	FindMany(ctx context.Context, table string, filters []Filter, order []Order, limit, offset int, dest any) error
	Insert(ctx context.Context, table string, values map[string]any) (Result, error)
	Update(ctx context.Context, table string, filters []Filter, values map[string]any) (Result, error)
	Delete(ctx context.Context, table string, filters []Filter) (Result, error)
	Count(ctx context.Context, table string, filters []Filter) (int64, error)
	Close() error
}
