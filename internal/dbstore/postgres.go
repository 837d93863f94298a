package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/maukemana/photocore/internal/apperr"
)

// PostgresConfig configures the relational adapter.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres is the relational Adapter, built on sqlx for scanning and
// squirrel for compiling the filter sublanguage into parameterized SQL.
type Postgres struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

// NewPostgres opens the pool and verifies connectivity, mirroring the
// teacher's database.New: otelsqlx.Connect, pool limits, a bounded ping.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	db, err := otelsqlx.Connect("postgres", cfg.DSN,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, apperr.Fatal(fmt.Errorf("dbstore: connect: %w", err))
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperr.Fatal(fmt.Errorf("dbstore: ping: %w", err))
	}

	return &Postgres{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// Health pings the pool; used by readiness checks.
func (p *Postgres) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// compileWhere turns the internal filter sum type into a squirrel
// Sqlizer, quoting identifiers and parameterizing every value.
func compileWhere(filters []Filter) (sq.Sqlizer, error) {
	and := sq.And{}
	for _, f := range filters {
		col := quoteIdent(f.Column)
		switch f.Op {
		case OpEq:
			and = append(and, sq.Eq{col: f.Value})
		case OpNeq:
			and = append(and, sq.NotEq{col: f.Value})
		case OpLt:
			and = append(and, sq.Lt{col: f.Value})
		case OpGt:
			and = append(and, sq.Gt{col: f.Value})
		case OpLte:
			and = append(and, sq.LtOrEq{col: f.Value})
		case OpGte:
			and = append(and, sq.GtOrEq{col: f.Value})
		case OpIs:
			if f.Value == nil {
				and = append(and, sq.Expr(col+" IS NULL"))
			} else {
				and = append(and, sq.Expr(col+" IS ?", f.Value))
			}
		case OpNotIs:
			if f.Value == nil {
				and = append(and, sq.Expr("NOT ("+col+" IS NULL)"))
			} else {
				and = append(and, sq.Expr("NOT ("+col+" IS ?)", f.Value))
			}
		case OpLike:
			and = append(and, sq.Like{col: f.Value})
		case OpILike:
			and = append(and, sq.ILike{col: f.Value})
		case OpIn:
			values, _ := f.Value.([]any)
			if len(values) == 0 {
				and = append(and, sq.Expr("FALSE"))
			} else {
				and = append(and, sq.Eq{col: values})
			}
		default:
			return nil, fmt.Errorf("dbstore: unsupported op %d on %s", f.Op, f.Column)
		}
	}
	return and, nil
}

func classifyPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity constraint violation
			return apperr.Conflict(err)
		case "08", "53", "57": // connection, insufficient resources, operator intervention
			return apperr.Transient(err)
		}
	}
	return apperr.Transient(err)
}

func (p *Postgres) FindOne(ctx context.Context, table string, filters []Filter, dest any) error {
	where, err := compileWhere(filters)
	if err != nil {
		return apperr.Validation(err)
	}
	query, args, err := p.builder.Select("*").From(quoteIdent(table)).Where(where).Limit(1).ToSql()
	if err != nil {
		return apperr.Validation(fmt.Errorf("dbstore: compile findOne: %w", err))
	}
	if err := p.db.GetContext(ctx, dest, query, args...); err != nil {
		return classifyPGError(fmt.Errorf("dbstore: findOne %s: %w", table, err))
	}
	return nil
}

func (p *Postgres) FindMany(ctx context.Context, table string, filters []Filter, order []Order, limit, offset int, dest any) error {
	where, err := compileWhere(filters)
	if err != nil {
		return apperr.Validation(err)
	}
	stmt := p.builder.Select("*").From(quoteIdent(table)).Where(where)
	for _, o := range order {
		dir := o.Direction
		if dir == "" {
			dir = Asc
		}
		stmt = stmt.OrderBy(fmt.Sprintf("%s %s", quoteIdent(o.Column), dir))
	}
	if limit > 0 {
		stmt = stmt.Limit(uint64(limit))
	}
	if offset > 0 {
		stmt = stmt.Offset(uint64(offset))
	}
	query, args, err := stmt.ToSql()
	if err != nil {
		return apperr.Validation(fmt.Errorf("dbstore: compile findMany: %w", err))
	}
	if err := p.db.SelectContext(ctx, dest, query, args...); err != nil {
		return classifyPGError(fmt.Errorf("dbstore: findMany %s: %w", table, err))
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, table string, values map[string]any) (Result, error) {
	cols := make([]string, 0, len(values))
	vals := make([]any, 0, len(values))
	for k, v := range values {
		cols = append(cols, quoteIdent(k))
		vals = append(vals, v)
	}
	query, args, err := p.builder.Insert(quoteIdent(table)).
		Columns(cols...).
		Values(vals...).
		Suffix(`RETURNING "id"`).
		ToSql()
	if err != nil {
		return Result{}, apperr.Validation(fmt.Errorf("dbstore: compile insert: %w", err))
	}
	var id string
	if err := p.db.GetContext(ctx, &id, query, args...); err != nil {
		return Result{}, classifyPGError(fmt.Errorf("dbstore: insert %s: %w", table, err))
	}
	return Result{RowsAffected: 1, InsertedID: id}, nil
}

func (p *Postgres) Update(ctx context.Context, table string, filters []Filter, values map[string]any) (Result, error) {
	where, err := compileWhere(filters)
	if err != nil {
		return Result{}, apperr.Validation(err)
	}
	stmt := p.builder.Update(quoteIdent(table)).Where(where)
	for k, v := range values {
		col := quoteIdent(k)
		if n, ok := v.(Incr); ok {
			stmt = stmt.Set(col, sq.Expr(col+" + ?", int(n)))
			continue
		}
		stmt = stmt.Set(col, v)
	}
	query, args, err := stmt.ToSql()
	if err != nil {
		return Result{}, apperr.Validation(fmt.Errorf("dbstore: compile update: %w", err))
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, classifyPGError(fmt.Errorf("dbstore: update %s: %w", table, err))
	}
	affected, _ := res.RowsAffected()
	return Result{RowsAffected: affected}, nil
}

func (p *Postgres) Delete(ctx context.Context, table string, filters []Filter) (Result, error) {
	where, err := compileWhere(filters)
	if err != nil {
		return Result{}, apperr.Validation(err)
	}
	query, args, err := p.builder.Delete(quoteIdent(table)).Where(where).ToSql()
	if err != nil {
		return Result{}, apperr.Validation(fmt.Errorf("dbstore: compile delete: %w", err))
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, classifyPGError(fmt.Errorf("dbstore: delete %s: %w", table, err))
	}
	affected, _ := res.RowsAffected()
	return Result{RowsAffected: affected}, nil
}

func (p *Postgres) Count(ctx context.Context, table string, filters []Filter) (int64, error) {
	where, err := compileWhere(filters)
	if err != nil {
		return 0, apperr.Validation(err)
	}
	query, args, err := p.builder.Select("COUNT(*)").From(quoteIdent(table)).Where(where).ToSql()
	if err != nil {
		return 0, apperr.Validation(fmt.Errorf("dbstore: compile count: %w", err))
	}
	var count int64
	if err := p.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, classifyPGError(fmt.Errorf("dbstore: count %s: %w", table, err))
	}
	return count, nil
}

// Tx runs fn inside a transaction, committing on success and rolling back
// on error or panic. No repository in this module calls it; it is for
// callers that must run two statements on one connection.
func (p *Postgres) Tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Transient(fmt.Errorf("dbstore: begin tx: %w", err))
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Transient(fmt.Errorf("dbstore: commit tx: %w", err))
	}
	return nil
}

var _ Adapter = (*Postgres)(nil)
