package processing

import (
	"context"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/storage"
)

// fakeAdapter is a minimal in-memory dbstore.Adapter, mirroring
// internal/repositories' own test double, so the pipeline can be
// exercised end-to-end against repositories.PhotoRepository/
// AlbumRepository without a live Postgres or BaaS backend.
type fakeAdapter struct {
	rows map[string][]map[string]any
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{rows: map[string][]map[string]any{}}
}

func rowMatches(row map[string]any, f dbstore.Filter) bool {
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
		at, aok := v.(time.Time)
		bt, bok := f.Value.(time.Time)
		return aok && bok && at.Before(bt)
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

func rowMatchesAll(row map[string]any, filters []dbstore.Filter) bool {
	for _, f := range filters {
		if !rowMatches(row, f) {
			return false
		}
	}
	return true
}

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

// fakeStorage is a minimal in-memory storage.Adapter: only Download/Upload
// are exercised by the pipeline, everything else reports unsupported.
type fakeStorage struct {
	objects map[string][]byte
	failing map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, failing: map[string]error{}}
}

func (s *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if err, ok := s.failing[key]; ok {
		return nil, err
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, apperr.NotFound(errors.New("fakeStorage: missing key " + key))
	}
	return data, nil
}

func (s *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (storage.UploadResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.UploadResult{}, err
	}
	s.objects[key] = data
	return storage.UploadResult{ETag: "fake-etag"}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, apperr.Validation(errors.New("fakeStorage: List unsupported"))
}

func (s *fakeStorage) Copy(ctx context.Context, src, dst string) error {
	s.objects[dst] = s.objects[src]
	return nil
}

func (s *fakeStorage) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", apperr.Validation(errors.New("fakeStorage: PresignPut unsupported"))
}

func (s *fakeStorage) PresignGet(ctx context.Context, key string, ttl time.Duration, contentDisposition string) (string, error) {
	return "", apperr.Validation(errors.New("fakeStorage: PresignGet unsupported"))
}

func (s *fakeStorage) InitMultipart(ctx context.Context, key string) (string, error) {
	return "", apperr.Validation(errors.New("fakeStorage: InitMultipart unsupported"))
}

func (s *fakeStorage) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body io.Reader, size int64) (storage.UploadResult, error) {
	return storage.UploadResult{}, apperr.Validation(errors.New("fakeStorage: UploadPart unsupported"))
}

func (s *fakeStorage) PresignPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	return "", apperr.Validation(errors.New("fakeStorage: PresignPart unsupported"))
}

func (s *fakeStorage) CompleteMultipart(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) error {
	return apperr.Validation(errors.New("fakeStorage: CompleteMultipart unsupported"))
}

func (s *fakeStorage) AbortMultipart(ctx context.Context, key, uploadID string) error {
	return apperr.Validation(errors.New("fakeStorage: AbortMultipart unsupported"))
}

var _ storage.Adapter = (*fakeStorage)(nil)
