package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type FeedbackHandler struct {
	feedback *services.FeedbackService
}

func NewFeedbackHandler(feedback *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// ListFeedback handles GET /api/events/:id/feedback
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.feedback.List(c.Request.Context(), u, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", list)
}

// SubmitFeedback handles POST /api/events/:id/feedback
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req SubmitFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := h.feedback.Submit(c.Request.Context(), u, id, req.Rating, req.Comment)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "Feedback submitted", f)
}

// ListOrganizerFeedback handles GET /api/feedback/organizer
func (h *FeedbackHandler) ListOrganizerFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.feedback.ListForOrganizer(c.Request.Context(), u)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", views)
}
