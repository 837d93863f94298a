package dbstore

import (
	"context"
	"regexp"
	"testing"

	sq "github.com/Masterminds/squirrel"
	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/maukemana/photocore/internal/apperr"
)

type photoRow struct {
	ID     string `db:"id"`
	Status string `db:"status"`
}

func newMockedPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return &Postgres{
		db:      sqlx.NewDb(sqlDB, "postgres"),
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, mock
}

func TestPostgresFindOneNotFound(t *testing.T) {
	pg, mock := newMockedPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "photos" WHERE "id" = $1 LIMIT 1`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	var dest photoRow
	err := pg.FindOne(context.Background(), "photos", []Filter{Eq("id", "p1")}, &dest)
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindOneFound(t *testing.T) {
	pg, mock := newMockedPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "photos" WHERE "id" = $1 LIMIT 1`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("p1", "completed"))

	var dest photoRow
	err := pg.FindOne(context.Background(), "photos", []Filter{Eq("id", "p1")}, &dest)
	require.NoError(t, err)
	require.Equal(t, "p1", dest.ID)
	require.Equal(t, "completed", dest.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateClaim(t *testing.T) {
	pg, mock := newMockedPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "photos" SET "status" = $1 WHERE ("id" = $2)`)).
		WithArgs("processing", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := pg.Update(context.Background(), "photos", []Filter{Eq("id", "p1")}, map[string]any{"status": "processing"})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateZeroRowsIsNotError(t *testing.T) {
	pg, mock := newMockedPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "photos" SET "status" = $1 WHERE ("id" = $2)`)).
		WithArgs("processing", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := pg.Update(context.Background(), "photos", []Filter{Eq("id", "gone")}, map[string]any{"status": "processing"})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.RowsAffected)
}

func TestPostgresCountUsesSameWhereAsFindMany(t *testing.T) {
	pg, mock := newMockedPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "photos" WHERE ("album_id" = $1)`)).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := pg.Count(context.Background(), "photos", []Filter{Eq("album_id", "A")})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.NoError(t, mock.ExpectationsWereMet())
}
