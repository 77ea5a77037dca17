package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
)

// Get handles GET requests to download a package.
// The body is streamed straight from the backend; nothing is buffered.
func (h *CacheHandler) Get(c *gin.Context) {
	key, ok := h.packageKey(c)
	if !ok {
		return
	}

	reader, size, err := h.service.Fetch(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.metrics.CacheMisses.Add(c.Request.Context(), 1)
		}
		h.fail(c, key, "get", err)
		return
	}
	defer reader.Close()

	h.metrics.CacheHits.Add(c.Request.Context(), 1)

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s.bin", key.SHA),
	}
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", reader, extraHeaders)
}
