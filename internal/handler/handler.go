package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cache"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
)

// CacheHandler handles the binary cache HTTP requests.
type CacheHandler struct {
	service *cache.Service
	logger  zerolog.Logger
	metrics *Metrics
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(service *cache.Service, logger zerolog.Logger) (*CacheHandler, error) {
	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	return &CacheHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// packageKey normalizes the path parameters into a storage key. Malformed
// identifiers are rejected here, before any storage call.
func (h *CacheHandler) packageKey(c *gin.Context) (cachekey.Key, bool) {
	key, err := cachekey.Normalize(c.Param("name"), c.Param("version"), c.Param("sha"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return cachekey.Key{}, false
	}
	return key, true
}

// statusFor maps domain errors to HTTP status codes. All error-to-status
// translation happens here, once, at the router boundary.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cachekey.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response and logs server-side failures.
func (h *CacheHandler) fail(c *gin.Context, key cachekey.Key, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Stringer("package", key).Str("op", op).Msg("cache operation failed")
	}
	c.JSON(code, gin.H{"detail": err.Error()})
}
