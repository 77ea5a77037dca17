package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cache"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
)

// failingBackend simulates an unreachable storage backend.
type failingBackend struct{}

func (failingBackend) Exists(ctx context.Context, key cachekey.Key) (bool, error) {
	return false, fmt.Errorf("stat: %w", storage.ErrUnavailable)
}

func (failingBackend) Size(ctx context.Context, key cachekey.Key) (int64, error) {
	return 0, fmt.Errorf("stat: %w", storage.ErrUnavailable)
}

func (failingBackend) Open(ctx context.Context, key cachekey.Key) (io.ReadCloser, int64, error) {
	return nil, 0, fmt.Errorf("open: %w", storage.ErrUnavailable)
}

func (failingBackend) BeginWrite(ctx context.Context, key cachekey.Key) (storage.WriteHandle, error) {
	return nil, fmt.Errorf("begin write: %w", storage.ErrUnavailable)
}

func (failingBackend) Ping(ctx context.Context) error {
	return fmt.Errorf("ping: %w", storage.ErrUnavailable)
}

func newRouter(t *testing.T, backend storage.Backend, mode cache.Mode) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := cache.NewService(backend, mode, zerolog.Nop())
	h, err := NewCacheHandler(service, zerolog.Nop())
	require.NoError(t, err)

	r := gin.New()
	r.HEAD("/:name/:version/:sha", h.Head)
	r.GET("/:name/:version/:sha", h.Get)
	r.PUT("/:name/:version/:sha", h.Put)
	return r
}

func newFileRouter(t *testing.T, mode cache.Mode) *gin.Engine {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return newRouter(t, backend, mode)
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadCheckDownloadScenario(t *testing.T) {
	r := newFileRouter(t, cache.ModeReadWrite)

	w := doRequest(r, http.MethodPut, "/zlib/1.3.0/abcdef0123", []byte("hello"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"size_bytes":5`)

	w = doRequest(r, http.MethodHead, "/zlib/1.3.0/abcdef0123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("Content-Length"))

	w = doRequest(r, http.MethodGet, "/zlib/1.3.0/abcdef0123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=abcdef0123.bin", w.Header().Get("Content-Disposition"))

	w = doRequest(r, http.MethodHead, "/zlib/1.3.0/never-stored", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShaLookupIsCaseInsensitive(t *testing.T) {
	r := newFileRouter(t, cache.ModeReadWrite)

	w := doRequest(r, http.MethodPut, "/zlib/1.3.0/ABCDEF0123", []byte("hello"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/zlib/1.3.0/abcdef0123", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestEmptyPayloadRoundTrip(t *testing.T) {
	r := newFileRouter(t, cache.ModeReadWrite)

	w := doRequest(r, http.MethodPut, "/zlib/1.3.0/abcdef0123", []byte{})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/zlib/1.3.0/abcdef0123", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestInvalidKeyRejectedBeforeStorage(t *testing.T) {
	r := newRouter(t, failingBackend{}, cache.ModeReadWrite)

	// The failing backend would turn any storage call into a 503; a 400
	// proves validation happens first.
	for _, method := range []string{http.MethodHead, http.MethodGet, http.MethodPut} {
		w := doRequest(r, method, "/bad!name/1.0/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
}

func TestReadOnlyModeForbidsUpload(t *testing.T) {
	r := newFileRouter(t, cache.ModeReadOnly)

	w := doRequest(r, http.MethodPut, "/zlib/1.3.0/abcdef0123", []byte("hello"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/zlib/1.3.0/abcdef0123", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "reads stay allowed in read-only mode")
}

func TestWriteOnlyModeForbidsReads(t *testing.T) {
	r := newFileRouter(t, cache.ModeWriteOnly)

	w := doRequest(r, http.MethodPut, "/zlib/1.3.0/abcdef0123", []byte("hello"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodHead, "/zlib/1.3.0/abcdef0123", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/zlib/1.3.0/abcdef0123", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBackendOutageMapsToServiceUnavailable(t *testing.T) {
	r := newRouter(t, failingBackend{}, cache.ModeReadWrite)

	for _, method := range []string{http.MethodHead, http.MethodGet, http.MethodPut} {
		w := doRequest(r, method, "/zlib/1.3.0/abcdef0123", []byte("hello"))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, method)
	}
}
