package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/middleware/auth"
	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type AuthHandler struct {
	users *services.UserService
	log   *log.Logger
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{
		users: users,
		log:   logger.Handler("auth"),
	}
}

type LoginRequest struct {
	Email       string `json:"email" binding:"omitempty,email,max=254"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	AvatarURL   string `json:"avatar_url" binding:"omitempty,url"`
}

type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Login handles POST /api/auth/login. The body may fill in profile fields the
// token does not carry. Tokens without an email claim must log in here with
// an email before other routes accept them.
func (h *AuthHandler) Login(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		response.FromError(c, identity.ErrMissingToken)
		return
	}

	var req LoginRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if id.Email == "" {
		id.Email = req.Email
	}
	if id.DisplayName == "" {
		id.DisplayName = req.DisplayName
	}
	if id.AvatarURL == "" {
		id.AvatarURL = req.AvatarURL
	}

	u, err := h.users.EnsureUser(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Logged in", u)
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		response.FromError(c, identity.ErrMissingToken)
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), id.SubjectID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", u)
}

// SetRole handles POST /api/auth/role
func (h *AuthHandler) SetRole(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		response.FromError(c, identity.ErrMissingToken)
		return
	}

	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.SetRole(c.Request.Context(), id.SubjectID, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.log.Debug("Role updated", "user_id", u.ID, "role", u.Role)
	response.SuccessResponse(c, http.StatusOK, "Role updated", u)
}
