package storage

import (
	"fmt"
	"strings"
)

// Config selects and parameterizes the storage backend. Exactly one backend
// is constructed from it at startup; there is no runtime re-selection.
type Config struct {
	Type  string
	File  FileConfig
	MinIO MinIOConfig
}

// FileConfig holds the settings for the filesystem backend.
type FileConfig struct {
	Path string
}

// New creates the backend named by cfg.Type.
func New(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Type) {
	case "file":
		return NewFileBackend(cfg.File.Path)
	case "minio":
		return NewMinIOBackend(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}
