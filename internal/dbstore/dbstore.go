package dbstore

import (
	"context"
	"fmt"

	"github.com/maukemana/photocore/internal/apperr"
)

// Backend selects which Adapter Initialize constructs.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendRestAPI  Backend = "restapi"
)

// Config is the union of both adapters' settings; only the fields for the
// selected Backend are read. Environment variables backing this struct
// must be loaded before Initialize is called — callers read them via
// internal/config at the top of main, never lazily on first use.
type Config struct {
	Backend  Backend
	Postgres PostgresConfig
	RestAPI  RestAPIConfig
}

// Initialize constructs the configured Adapter. The pool itself is built
// eagerly here (not lazily on first query) since Initialize is already the
// explicit "first use" checkpoint the environment-loading rule requires.
func Initialize(ctx context.Context, cfg Config) (Adapter, error) {
	switch cfg.Backend {
	case BackendPostgres:
		return NewPostgres(ctx, cfg.Postgres)
	case BackendRestAPI:
		return NewRestAPI(cfg.RestAPI)
	default:
		return nil, apperr.Fatal(fmt.Errorf("dbstore: unknown backend %q", cfg.Backend))
	}
}
