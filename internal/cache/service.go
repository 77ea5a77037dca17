// Package cache implements the artifact cache use-cases on top of a storage
// backend: existence checks, fetches and stores, gated by the operating mode.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
)

// ErrForbidden is returned when the operating mode disallows an operation.
var ErrForbidden = errors.New("operation not allowed by operating mode")

// Service streams artifacts between the transport and the storage backend.
//
// The service holds no per-key locks: concurrent stores to the same key are
// resolved by the backend's atomic commit (last committed writer wins), which
// keeps the service stateless and safe to run on any number of instances
// sharing one backend.
type Service struct {
	backend storage.Backend
	mode    Mode
	logger  zerolog.Logger
}

// NewService creates a cache service over the given backend. The mode is
// fixed for the lifetime of the service.
func NewService(backend storage.Backend, mode Mode, logger zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		mode:    mode,
		logger:  logger,
	}
}

// Mode returns the operating mode the service was constructed with.
func (s *Service) Mode() Mode {
	return s.mode
}

// Ping probes backend connectivity for health reporting. It is not gated by
// the operating mode.
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Exists reports whether an artifact is present.
func (s *Service) Exists(ctx context.Context, key cachekey.Key) (bool, error) {
	if !s.mode.AllowsRead() {
		return false, ErrForbidden
	}
	return s.backend.Exists(ctx, key)
}

// Stat returns the stored size of an artifact.
func (s *Service) Stat(ctx context.Context, key cachekey.Key) (int64, error) {
	if !s.mode.AllowsRead() {
		return 0, ErrForbidden
	}
	return s.backend.Size(ctx, key)
}

// Fetch returns the backend's read stream and the artifact size. The stream
// is handed to the caller unmodified; nothing is buffered here regardless of
// artifact size. The caller must close it on every exit path.
func (s *Service) Fetch(ctx context.Context, key cachekey.Key) (io.ReadCloser, int64, error) {
	if !s.mode.AllowsRead() {
		return nil, 0, ErrForbidden
	}
	return s.backend.Open(ctx, key)
}

// Store streams the input into a staged backend write and commits it once
// the input is cleanly exhausted. Any read or write error aborts the write,
// leaving nothing visible under the key. Returns the number of bytes stored.
func (s *Service) Store(ctx context.Context, key cachekey.Key, r io.Reader) (int64, error) {
	if !s.mode.AllowsWrite() {
		return 0, ErrForbidden
	}

	handle, err := s.backend.BeginWrite(ctx, key)
	if err != nil {
		return 0, err
	}
	// No-op after a successful commit; discards staging state on every
	// error path, including panics further up the stack.
	defer handle.Abort()

	size, err := io.Copy(handle, r)
	if err != nil {
		s.logger.Debug().Err(err).Stringer("package", key).Msg("store aborted")
		return 0, fmt.Errorf("copy upload stream: %w", err)
	}

	if err := handle.Commit(); err != nil {
		return 0, err
	}

	s.logger.Debug().Stringer("package", key).Int64("size", size).Msg("package stored")
	return size, nil
}
