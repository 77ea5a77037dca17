package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Head handles HEAD requests to check package existence.
// Responds 200 with the stored size, 404 on miss.
func (h *CacheHandler) Head(c *gin.Context) {
	key, ok := h.packageKey(c)
	if !ok {
		return
	}

	size, err := h.service.Stat(c.Request.Context(), key)
	if err != nil {
		h.fail(c, key, "head", err)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Status(http.StatusOK)
}
