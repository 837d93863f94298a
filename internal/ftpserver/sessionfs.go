package ftpserver

import (
	"os"
	"sync"

	"github.com/spf13/afero"
)

// sessionFS wraps a per-session afero.Fs (an OS filesystem rooted under
// the session's staging directory) so that closing a file opened for
// writing triggers the ingest pipeline exactly once (spec §4.6 "on
// file-stream close").
type sessionFS struct {
	afero.Fs
	albumID string
	onClose func(stagedPath, name string)
}

func (s *sessionFS) Create(name string) (afero.File, error) {
	f, err := s.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return s.wrap(f, name), nil
}

func (s *sessionFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return f, nil
	}
	return s.wrap(f, name), nil
}

func (s *sessionFS) wrap(f afero.File, name string) afero.File {
	return &closeHookFile{
		File: f,
		onClose: func() {
			s.onClose(absPath(s.Fs, name), name)
		},
	}
}

// absPath resolves name to the real on-disk path underneath a
// *afero.BasePathFs, since Ingest.Run needs to os.ReadFile it directly
// rather than through the afero abstraction.
func absPath(fs afero.Fs, name string) string {
	type realPather interface {
		RealPath(name string) (string, error)
	}
	if rp, ok := fs.(realPather); ok {
		if real, err := rp.RealPath(name); err == nil {
			return real
		}
	}
	return name
}

// closeHookFile decorates an afero.File so its first Close() call runs
// onClose after the underlying file is actually closed (and flushed to
// disk), matching ftpserverlib's "on file-stream close" trigger point.
type closeHookFile struct {
	afero.File
	once    sync.Once
	onClose func()
}

func (f *closeHookFile) Close() error {
	err := f.File.Close()
	f.once.Do(func() {
		if err == nil && f.onClose != nil {
			f.onClose()
		}
	})
	return err
}
