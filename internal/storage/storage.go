package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
)

var (
	// ErrNotFound is returned when a package does not exist in the backend.
	ErrNotFound = errors.New("package not found")

	// ErrUnavailable is returned when the backend cannot be reached or an
	// I/O operation fails. It is never used for a missing package, so
	// callers can distinguish absence from outage.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// unavailable classifies an I/O failure as a backend outage.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Backend defines the interface for cache storage backends.
// This abstraction allows for different implementations (filesystem, MinIO,
// any S3-compatible store). Implementations must be safe for concurrent use
// and must never buffer whole payloads in memory.
type Backend interface {
	// Exists reports whether a package is present.
	// Failures to reach the backend return ErrUnavailable, never false/nil.
	Exists(ctx context.Context, key cachekey.Key) (bool, error)

	// Size returns the stored size of a package in bytes.
	// Returns ErrNotFound if the package does not exist.
	Size(ctx context.Context, key cachekey.Key) (int64, error)

	// Open returns a stream over the package content and its size.
	// The caller must close the returned ReadCloser on every exit path.
	// Returns ErrNotFound if the package does not exist.
	Open(ctx context.Context, key cachekey.Key) (io.ReadCloser, int64, error)

	// BeginWrite starts a staged write for the given key. Data written to
	// the handle is not visible under the key until Commit succeeds; Abort
	// (or a failed Commit) leaves no trace of the attempt.
	BeginWrite(ctx context.Context, key cachekey.Key) (WriteHandle, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}

// WriteHandle accepts sequential chunks of a package being stored.
//
// Commit publishes the staged data under the final key in one step that is
// atomic from any concurrent reader's perspective: a racing read observes
// either nothing, the previously committed content, or the new content,
// never a truncation. Abort discards the staging state; it is a no-op after
// a successful Commit, so callers can defer it unconditionally.
type WriteHandle interface {
	io.Writer
	Commit() error
	Abort() error
}
