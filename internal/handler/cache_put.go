package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Put handles PUT requests to upload a package. The request body is piped
// chunk-by-chunk into a staged backend write that only becomes visible once
// the upload completes; a broken upload leaves no trace under the key.
func (h *CacheHandler) Put(c *gin.Context) {
	key, ok := h.packageKey(c)
	if !ok {
		return
	}

	size, err := h.service.Store(c.Request.Context(), key, c.Request.Body)
	if err != nil {
		h.fail(c, key, "put", err)
		return
	}

	h.metrics.EntrySize.Record(c.Request.Context(), float64(size))

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"message":    "Package uploaded successfully",
		"size_bytes": size,
	})
}
