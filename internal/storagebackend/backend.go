// Package storagebackend presents one capability set over local filesystem
// and S3-compatible object storage, so the snapshot store, query engine and
// ingestion pipeline never branch on which backend a workspace is configured
// with.
package storagebackend

import (
	"context"
	"io"
)

// Backend is the uniform I/O surface over a workspace's sources root,
// whether that root lives on local disk or in an object store. Keys are
// always "/"-separated logical paths relative to the backend's own prefix.
type Backend interface {
	// PutBytes writes the full contents of data at key, replacing any
	// existing object. Implementations make the write atomic with respect
	// to concurrent readers: a reader never observes a partial write.
	PutBytes(ctx context.Context, key string, data []byte) error

	// PutIfAbsent writes data at key only if no object currently exists
	// there. It reports ok=false (and a nil error) when the key was already
	// present, so callers can distinguish "lost the race" from "failed".
	PutIfAbsent(ctx context.Context, key string, data []byte) (ok bool, err error)

	// GetBytes reads the full contents of key. Returns a *snaperr.Error of
	// kind NotFound when the key does not exist.
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// ListPrefix returns every key under prefix, lexicographically ordered.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// DeletePrefix removes every key under prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// OpenWriter returns a streaming sink for key. Data is only visible to
	// readers once Close is called without error; Close-ing after an error
	// must not leave a partial object visible.
	OpenWriter(ctx context.Context, key string) (io.WriteCloser, error)

	// String identifies the backend for logging, e.g. "local:/tmp/ws" or
	// "s3://bucket/prefix".
	String() string
}
