package storagebackend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
)

// LocalBackend stores objects under a root directory on the local
// filesystem. Writes go through a temp file in the same directory followed
// by an atomic rename, so a reader never observes a partially written
// snapshot — the same pattern the block storage writer uses to make crash
// recovery safe.
type LocalBackend struct {
	root   string
	logger *logging.Logger
}

// NewLocalBackend creates a backend rooted at root, creating the directory
// if it does not already exist.
func NewLocalBackend(root string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "create local storage root %q", root)
	}
	return &LocalBackend{root: root, logger: logging.GetLogger("storagebackend.local")}, nil
}

func (b *LocalBackend) path(key string) string {
	cleaned := filepath.Clean("/" + key)
	return filepath.Join(b.root, cleaned)
}

func (b *LocalBackend) String() string {
	return "local:" + b.root
}

func (b *LocalBackend) PutBytes(ctx context.Context, key string, data []byte) error {
	dest := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return snaperr.NewStorageUnavailable(err, "create parent dir for %q", key)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".snapbase-tmp-*")
	if err != nil {
		return snaperr.NewStorageUnavailable(err, "create temp file for %q", key)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return snaperr.NewStorageUnavailable(err, "write temp file for %q", key)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return snaperr.NewStorageUnavailable(err, "sync temp file for %q", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return snaperr.NewStorageUnavailable(err, "close temp file for %q", key)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return snaperr.NewStorageUnavailable(err, "rename temp file into place for %q", key)
	}
	return nil
}

func (b *LocalBackend) PutIfAbsent(ctx context.Context, key string, data []byte) (bool, error) {
	dest := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, snaperr.NewStorageUnavailable(err, "create parent dir for %q", key)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, snaperr.NewStorageUnavailable(err, "claim %q", key)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return false, snaperr.NewStorageUnavailable(err, "write claimed file %q", key)
	}
	return true, nil
}

func (b *LocalBackend) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, snaperr.NewNotFound("object %q not found", key)
		}
		return nil, snaperr.NewStorageUnavailable(err, "read %q", key)
	}
	return data, nil
}

func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, snaperr.NewStorageUnavailable(err, "stat %q", key)
}

func (b *LocalBackend) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	base := b.path(prefix)
	var keys []string
	walkRoot := base
	info, err := os.Stat(base)
	if err != nil {
		if os.IsNotExist(err) {
			// Prefix may name a partial path segment rather than a
			// directory; walk from its parent and filter below.
			walkRoot = filepath.Dir(base)
			if _, derr := os.Stat(walkRoot); derr != nil {
				return nil, nil
			}
		}
	} else if !info.IsDir() {
		rel, _ := filepath.Rel(b.root, base)
		return []string{filepath.ToSlash(rel)}, nil
	}

	err = filepath.Walk(walkRoot, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		if strings.HasPrefix(relSlash, strings.TrimPrefix(filepath.ToSlash(prefix), "/")) {
			keys = append(keys, relSlash)
		}
		return nil
	})
	if err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "list prefix %q", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *LocalBackend) DeletePrefix(ctx context.Context, prefix string) error {
	target := b.path(prefix)
	if err := os.RemoveAll(target); err != nil {
		return snaperr.NewStorageUnavailable(err, "delete prefix %q", prefix)
	}
	return nil
}

func (b *LocalBackend) OpenWriter(ctx context.Context, key string) (io.WriteCloser, error) {
	dest := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "create parent dir for %q", key)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".snapbase-tmp-*")
	if err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "create temp file for %q", key)
	}
	return &localWriter{tmp: tmp, dest: dest, logger: b.logger}, nil
}

// localWriter buffers writes in a temp file and renames it into place on
// Close, matching the finalize-last-writes-win-nothing pattern the snapshot
// store relies on for partial-write invisibility.
type localWriter struct {
	tmp    *os.File
	dest   string
	logger *logging.Logger
	closed bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *localWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.tmp.Sync(); err != nil {
		w.tmp.Close()
		os.Remove(w.tmp.Name())
		return snaperr.NewStorageUnavailable(err, "sync %q", w.dest)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return snaperr.NewStorageUnavailable(err, "close %q", w.dest)
	}
	if err := os.Rename(w.tmp.Name(), w.dest); err != nil {
		os.Remove(w.tmp.Name())
		return snaperr.NewStorageUnavailable(err, "rename into place %q", w.dest)
	}
	return nil
}

var _ fmt.Stringer = (*LocalBackend)(nil)
