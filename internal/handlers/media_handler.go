package handlers

import (
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type MediaHandler struct {
	media *services.MediaService
}

func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// GetMedia handles GET /api/media/*key
func (h *MediaHandler) GetMedia(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	r, obj, err := h.media.Open(c.Request.Context(), u, c.Param("key"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer r.Close()

	contentType := obj.ContentType
	if contentType == "" || blob.IsActive(contentType) {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Cache-Control":          "private, max-age=3600",
		"X-Content-Type-Options": "nosniff",
	}
	if !blob.InlineSafe(contentType) {
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(obj.Key)})
		headers["Content-Security-Policy"] = "default-src 'none'; sandbox"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, r, headers)
}
