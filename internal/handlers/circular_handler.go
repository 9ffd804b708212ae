package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type CircularHandler struct {
	circulars    *services.CircularService
	maxAudioSize int64
}

func NewCircularHandler(circulars *services.CircularService, maxAudioSize int64) *CircularHandler {
	return &CircularHandler{
		circulars:    circulars,
		maxAudioSize: maxAudioSize,
	}
}

type CircularRequest struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// ListCirculars handles GET /api/events/:id/circulars
func (h *CircularHandler) ListCirculars(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	circulars, err := h.circulars.List(c.Request.Context(), u, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", circulars)
}

// PostCircular handles POST /api/events/:id/circulars. A JSON body posts a
// text circular; a multipart form with an "audio" file posts a voice circular.
func (h *CircularHandler) PostCircular(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var in services.CircularInput
	if c.ContentType() == "multipart/form-data" {
		upload, file, ok := formUpload(c, "audio", h.maxAudioSize)
		if !ok {
			return
		}
		defer file.Close()
		in = services.CircularInput{Kind: "voice", Audio: &upload}
	} else {
		var req CircularRequest
		if !bindJSON(c, &req) {
			return
		}
		in = services.CircularInput{Kind: req.Kind, Content: req.Content}
	}

	circular, err := h.circulars.Append(c.Request.Context(), u, id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "Circular posted", circular)
}
