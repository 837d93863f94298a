package repositories

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/dbstore"
)

// fakeAdapter is a minimal in-memory dbstore.Adapter used to exercise
// repository logic without a real Postgres or BaaS backend. It applies
// filters the same way the postgres adapter's compileWhere does, so a
// repository test written against it exercises the same semantics the
// real adapters provide.
type fakeAdapter struct {
	rows map[string][]map[string]any
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{rows: map[string][]map[string]any{}}
}

func matches(row map[string]any, f dbstore.Filter) bool {
	v := row[f.Column]
	switch f.Op {
	case dbstore.OpEq:
		return v == f.Value
	case dbstore.OpNeq:
		return v != f.Value
	case dbstore.OpIs:
		if f.Value == nil {
			return v == nil
		}
		return v == f.Value
	case dbstore.OpNotIs:
		if f.Value == nil {
			return v != nil
		}
		return v != f.Value
	case dbstore.OpLt:
		return lessThan(v, f.Value)
	case dbstore.OpIn:
		values, _ := f.Value.([]any)
		for _, want := range values {
			if v == want {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func lessThan(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Before(bt)
	}
	return false
}

// decodeInto copies a row's values into dest (a pointer to a struct) by
// matching `db` tags, mirroring the shape sqlx.Get imposes on the real
// adapters closely enough to exercise repository logic in tests.
func decodeInto(row map[string]any, dest any) error {
	rv := reflect.ValueOf(dest).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		v, ok := row[tag]
		if !ok {
			continue
		}
		if v == nil {
			rv.Field(i).Set(reflect.Zero(rv.Field(i).Type()))
			continue
		}
		assignField(rv.Field(i), v)
	}
	return nil
}

// assignField copies v into fv, allocating a pointer when fv is a pointer
// field and v is a bare value — mirroring how sqlx scans a non-null
// timestamp/text column into a nullable *time.Time/*string struct field.
func assignField(fv reflect.Value, v any) {
	vv := reflect.ValueOf(v)
	if !vv.IsValid() {
		return
	}
	if fv.Kind() == reflect.Ptr {
		if vv.Type() == fv.Type() {
			fv.Set(vv)
			return
		}
		elemType := fv.Type().Elem()
		switch {
		case vv.Type().AssignableTo(elemType):
			ptr := reflect.New(elemType)
			ptr.Elem().Set(vv)
			fv.Set(ptr)
		case vv.Type().ConvertibleTo(elemType):
			ptr := reflect.New(elemType)
			ptr.Elem().Set(vv.Convert(elemType))
			fv.Set(ptr)
		}
		return
	}
	if vv.Type().AssignableTo(fv.Type()) {
		fv.Set(vv)
		return
	}
	if vv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(vv.Convert(fv.Type()))
	}
}

func decodeSliceInto(rows []map[string]any, dest any) error {
	rv := reflect.ValueOf(dest).Elem()
	et := rv.Type().Elem()
	out := reflect.MakeSlice(rv.Type(), 0, len(rows))
	for _, row := range rows {
		elem := reflect.New(et)
		if err := decodeInto(row, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	rv.Set(out)
	return nil
}

func rowMatchesAll(row map[string]any, filters []dbstore.Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func (f *fakeAdapter) FindOne(ctx context.Context, table string, filters []dbstore.Filter, dest any) error {
	for _, row := range f.rows[table] {
		if rowMatchesAll(row, filters) {
			return decodeInto(row, dest)
		}
	}
	return apperr.NotFound(errors.New("fakeAdapter: no matching row in " + table))
}

func (f *fakeAdapter) FindMany(ctx context.Context, table string, filters []dbstore.Filter, order []dbstore.Order, limit, offset int, dest any) error {
	var matched []map[string]any
	for _, row := range f.rows[table] {
		if rowMatchesAll(row, filters) {
			matched = append(matched, row)
		}
	}
	return decodeSliceInto(matched, dest)
}

func (f *fakeAdapter) Insert(ctx context.Context, table string, values map[string]any) (dbstore.Result, error) {
	row := map[string]any{}
	for k, v := range values {
		row[k] = v
	}
	id, _ := row["id"].(string)
	if id == "" {
		id = uuid.New().String()
		row["id"] = id
	}
	f.rows[table] = append(f.rows[table], row)
	return dbstore.Result{RowsAffected: 1, InsertedID: id}, nil
}

func (f *fakeAdapter) Update(ctx context.Context, table string, filters []dbstore.Filter, values map[string]any) (dbstore.Result, error) {
	var affected int64
	for _, row := range f.rows[table] {
		if !rowMatchesAll(row, filters) {
			continue
		}
		for k, v := range values {
			if n, ok := v.(dbstore.Incr); ok {
				base, _ := row[k].(int)
				row[k] = base + int(n)
				continue
			}
			row[k] = v
		}
		affected++
	}
	return dbstore.Result{RowsAffected: affected}, nil
}

func (f *fakeAdapter) Delete(ctx context.Context, table string, filters []dbstore.Filter) (dbstore.Result, error) {
	kept := f.rows[table][:0]
	var affected int64
	for _, row := range f.rows[table] {
		if rowMatchesAll(row, filters) {
			affected++
			continue
		}
		kept = append(kept, row)
	}
	f.rows[table] = kept
	return dbstore.Result{RowsAffected: affected}, nil
}

func (f *fakeAdapter) Count(ctx context.Context, table string, filters []dbstore.Filter) (int64, error) {
	var n int64
	for _, row := range f.rows[table] {
		if rowMatchesAll(row, filters) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAdapter) Close() error { return nil }

var _ dbstore.Adapter = (*fakeAdapter)(nil)
