package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileBackendFromConfig(t *testing.T) {
	b, err := New(Config{Type: "file", File: FileConfig{Path: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)
}

func TestNewMinIOBackendFromConfig(t *testing.T) {
	b, err := New(Config{Type: "minio", MinIO: MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "vcpkg-harbor",
	}})
	require.NoError(t, err)
	assert.IsType(t, &MinIOBackend{}, b)
}

func TestNewBackendTypeIsCaseInsensitive(t *testing.T) {
	b, err := New(Config{Type: "File", File: FileConfig{Path: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)
}

func TestNewUnsupportedBackend(t *testing.T) {
	_, err := New(Config{Type: "redis"})
	assert.Error(t, err)
}
