package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartTime   *time.Time `json:"start_time"`
}

type JoinEventRequest struct {
	Code string `json:"code" binding:"required,joincode"`
}

// EventPreview is what a join-code search reveals about an event
type EventPreview struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	AttendeeCount   int       `json:"attendee_count"`
	AlreadyAttendee bool      `json:"already_attendee"`
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.events.CreateEvent(c.Request.Context(), u, services.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "Event created", e)
}

// ListOrganizerEvents handles GET /api/events/organizer
func (h *EventHandler) ListOrganizerEvents(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	events, err := h.events.ListForOrganizer(c.Request.Context(), u)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", events)
}

// ListAttendeeEvents handles GET /api/events/attendee
func (h *EventHandler) ListAttendeeEvents(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	events, err := h.events.ListForAttendee(c.Request.Context(), u)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", events)
}

// SearchByCode handles GET /api/events/search?code=
func (h *EventHandler) SearchByCode(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	e, already, err := h.events.FindByJoinCode(c.Request.Context(), u, c.Query("code"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", EventPreview{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Location:        e.Location,
		StartTime:       e.StartTime,
		AttendeeCount:   len(e.Attendees),
		AlreadyAttendee: already,
	})
}

// JoinEvent handles POST /api/events/join
func (h *EventHandler) JoinEvent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req JoinEventRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.events.JoinEvent(c.Request.Context(), u, req.Code)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Joined event", e)
}

// GetEvent handles GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	e, err := h.events.GetEvent(c.Request.Context(), u, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", e)
}

// UpdateEvent handles PUT /api/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.events.UpdateEvent(c.Request.Context(), u, id, event.Patch{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		Location:    req.Location,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Event updated", e)
}

// DeleteEvent handles DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), u, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Event deleted", nil)
}

// ListAttendees handles GET /api/events/:id/attendees
func (h *EventHandler) ListAttendees(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	attendees, err := h.events.ListAttendees(c.Request.Context(), u, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", attendees)
}

// RemoveAttendee handles DELETE /api/events/:id/attendees/:attendeeId
func (h *EventHandler) RemoveAttendee(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	attendeeID, ok := pathUUID(c, "attendeeId")
	if !ok {
		return
	}

	if err := h.events.RemoveAttendee(c.Request.Context(), u, id, attendeeID); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Attendee removed", nil)
}
