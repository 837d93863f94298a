package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maukemana/photocore/internal/apperr"
)

// FSAdapter is a filesystem-backed Adapter for local development and
// tests, where spinning up an S3-compatible store is unnecessary. It keeps
// the same key semantics ("/"-delimited opaque paths) mapped directly onto
// a root directory.
type FSAdapter struct {
	root string

	mu        sync.Mutex
	multipart map[string]*fsMultipart
}

type fsMultipart struct {
	key   string
	parts map[int32][]byte
}

// NewFSAdapter roots the adapter at root, creating it if absent.
func NewFSAdapter(root string) (*FSAdapter, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.Fatal(fmt.Errorf("storage: create root %s: %w", root, err))
	}
	return &FSAdapter{root: root, multipart: make(map[string]*fsMultipart)}, nil
}

func (f *FSAdapter) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *FSAdapter) Download(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound(fmt.Errorf("storage: %s: %w", key, err))
		}
		return nil, apperr.Transient(fmt.Errorf("storage: download %s: %w", key, err))
	}
	return data, nil
}

func (f *FSAdapter) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string, _ map[string]string) (UploadResult, error) {
	p := f.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: mkdir for %s: %w", key, err))
	}
	tmp := p + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: create %s: %w", key, err))
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(tmp)
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: write %s: %w", key, err))
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: close %s: %w", key, err))
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: commit %s: %w", key, err))
	}
	info, err := os.Stat(p)
	etag := ""
	if err == nil {
		etag = fmt.Sprintf("%x-%d", info.ModTime().UnixNano(), info.Size())
	}
	return UploadResult{ETag: etag}, nil
}

func (f *FSAdapter) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return apperr.Transient(fmt.Errorf("storage: delete %s: %w", key, err))
	}
	return nil
}

func (f *FSAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, apperr.Transient(fmt.Errorf("storage: exists %s: %w", key, err))
}

func (f *FSAdapter) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	root := f.path(prefix)
	base := filepath.Dir(root)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []ObjectInfo
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, ObjectInfo{Key: key, Size: info.Size(), MTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, apperr.Transient(fmt.Errorf("storage: list %s: %w", prefix, err))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (f *FSAdapter) Copy(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(f.path(src))
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound(fmt.Errorf("storage: copy src %s: %w", src, err))
		}
		return apperr.Transient(fmt.Errorf("storage: copy src %s: %w", src, err))
	}
	dstPath := f.path(dst)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return apperr.Transient(fmt.Errorf("storage: copy mkdir %s: %w", dst, err))
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return apperr.Transient(fmt.Errorf("storage: copy dst %s: %w", dst, err))
	}
	return nil
}

// PresignPut returns a file:// URL. There is no real signing step for a
// local filesystem; this exists so code paths that always call PresignPut
// work unmodified against the dev adapter.
func (f *FSAdapter) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "file://" + f.path(key), nil
}

func (f *FSAdapter) PresignGet(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return "file://" + f.path(key), nil
}

func (f *FSAdapter) InitMultipart(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("%s-%d", key, time.Now().UnixNano())
	f.multipart[id] = &fsMultipart{key: key, parts: make(map[int32][]byte)}
	return id, nil
}

func (f *FSAdapter) UploadPart(_ context.Context, _ /* key */, uploadID string, partNumber int32, body io.Reader, _ int64) (UploadResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return UploadResult{}, apperr.Transient(fmt.Errorf("storage: read part: %w", err))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	mp, ok := f.multipart[uploadID]
	if !ok {
		return UploadResult{}, apperr.Validation(fmt.Errorf("storage: unknown upload %s", uploadID))
	}
	mp.parts[partNumber] = data
	return UploadResult{ETag: fmt.Sprintf("part-%d", partNumber)}, nil
}

// PresignPart is unsupported by the filesystem adapter; there is no
// authentication boundary to sign across.
func (f *FSAdapter) PresignPart(_ context.Context, _, _ string, _ int32, _ time.Duration) (string, error) {
	return "", apperr.Validation(fmt.Errorf("storage: presign part unsupported on fs adapter"))
}

func (f *FSAdapter) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	f.mu.Lock()
	mp, ok := f.multipart[uploadID]
	if !ok {
		f.mu.Unlock()
		return apperr.Validation(fmt.Errorf("storage: unknown upload %s", uploadID))
	}
	delete(f.multipart, uploadID)
	f.mu.Unlock()

	var buf bytes.Buffer
	for _, part := range parts {
		data, ok := mp.parts[part.PartNumber]
		if !ok {
			return apperr.Fatal(fmt.Errorf("storage: missing part %d for %s", part.PartNumber, key))
		}
		buf.Write(data)
	}
	_, err := f.Upload(ctx, key, &buf, int64(buf.Len()), "application/octet-stream", nil)
	return err
}

func (f *FSAdapter) AbortMultipart(_ context.Context, _, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.multipart, uploadID)
	return nil
}

var _ Adapter = (*FSAdapter)(nil)
