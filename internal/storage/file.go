package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
)

// workDirName is the staging directory under the storage root. Staged files
// live at <root>/.work/<random>, two levels above any blob path, so no
// (name, version, sha) triple can ever address them.
const workDirName = ".work"

// FileBackend implements Backend using the local filesystem.
// Packages are stored at <root>/<name>/<version>/<sha>. Writes are staged
// in a work directory on the same volume and published with a single rename,
// so readers never observe partially written content.
type FileBackend struct {
	root    string
	workDir string
}

// NewFileBackend creates a filesystem backend rooted at path. It creates the
// root and staging directories and verifies they are writable.
func NewFileBackend(path string) (*FileBackend, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	workDir := filepath.Join(root, workDirName)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}

	// Probe write permission up front rather than on the first PUT.
	probe, err := os.CreateTemp(workDir, "probe-*")
	if err != nil {
		return nil, fmt.Errorf("storage root is not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &FileBackend{root: root, workDir: workDir}, nil
}

// Root returns the storage root directory.
func (b *FileBackend) Root() string {
	return b.root
}

func (b *FileBackend) blobPath(key cachekey.Key) string {
	return filepath.Join(b.root, key.Name, key.Version, key.SHA)
}

// Exists reports whether the package file is present.
func (b *FileBackend) Exists(ctx context.Context, key cachekey.Key) (bool, error) {
	info, err := os.Stat(b.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, unavailable("stat package", err)
	}
	return info.Mode().IsRegular(), nil
}

// Size returns the package file size.
func (b *FileBackend) Size(ctx context.Context, key cachekey.Key) (int64, error) {
	info, err := os.Stat(b.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, unavailable("stat package", err)
	}
	if !info.Mode().IsRegular() {
		return 0, ErrNotFound
	}
	return info.Size(), nil
}

// Open returns a stream over the package file.
func (b *FileBackend) Open(ctx context.Context, key cachekey.Key) (io.ReadCloser, int64, error) {
	f, err := os.Open(b.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, unavailable("open package", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, unavailable("stat package", err)
	}

	return f, info.Size(), nil
}

// BeginWrite stages a write in the work directory.
func (b *FileBackend) BeginWrite(ctx context.Context, key cachekey.Key) (WriteHandle, error) {
	tmp, err := os.CreateTemp(b.workDir, "put-*")
	if err != nil {
		return nil, unavailable("create staging file", err)
	}

	return &fileWriteHandle{
		tmp:   tmp,
		final: b.blobPath(key),
	}, nil
}

// Ping verifies the storage root is still accessible.
func (b *FileBackend) Ping(ctx context.Context) error {
	if _, err := os.Stat(b.root); err != nil {
		return unavailable("stat storage root", err)
	}
	return nil
}

// fileWriteHandle buffers a store into a temp file and publishes it with an
// atomic rename. The temp file lives on the same volume as the destination
// so the rename cannot degrade into a copy.
type fileWriteHandle struct {
	tmp   *os.File
	final string
	done  bool
}

func (h *fileWriteHandle) Write(p []byte) (int, error) {
	n, err := h.tmp.Write(p)
	if err != nil {
		return n, unavailable("write staging file", err)
	}
	return n, nil
}

func (h *fileWriteHandle) Commit() error {
	if h.done {
		return errors.New("write handle already finished")
	}
	h.done = true

	if err := h.tmp.Close(); err != nil {
		os.Remove(h.tmp.Name())
		return unavailable("close staging file", err)
	}

	// Parent directories are created lazily; MkdirAll is idempotent under
	// concurrent stores of sibling keys.
	if err := os.MkdirAll(filepath.Dir(h.final), 0o755); err != nil {
		os.Remove(h.tmp.Name())
		return unavailable("create package directory", err)
	}

	if err := os.Rename(h.tmp.Name(), h.final); err != nil {
		os.Remove(h.tmp.Name())
		return unavailable("publish package", err)
	}

	return nil
}

func (h *fileWriteHandle) Abort() error {
	if h.done {
		return nil
	}
	h.done = true

	h.tmp.Close()
	if err := os.Remove(h.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailable("remove staging file", err)
	}
	return nil
}
