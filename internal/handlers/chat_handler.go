package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
)

type ChatHandler struct {
	chat        *services.ChatService
	maxFileSize int64
}

func NewChatHandler(chat *services.ChatService, maxFileSize int64) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		maxFileSize: maxFileSize,
	}
}

type SendMessageRequest struct {
	Content    string           `json:"content"`
	Kind       string           `json:"kind"`
	Attachment *chat.Attachment `json:"attachment"`
}

type ChatListResponse struct {
	Messages    []*chat.Message `json:"messages"`
	IsOrganizer bool            `json:"is_organizer"`
}

// ListMessages handles GET /api/events/:id/chat
func (h *ChatHandler) ListMessages(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	messages, isOrganizer, err := h.chat.List(c.Request.Context(), u, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", ChatListResponse{Messages: messages, IsOrganizer: isOrganizer})
}

// SendMessage handles POST /api/events/:id/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.chat.Send(c.Request.Context(), u, id, services.MessageInput{
		Content:    req.Content,
		Kind:       req.Kind,
		Attachment: req.Attachment,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "Message sent", m)
}

// UploadAttachment handles POST /api/events/:id/chat/attachments
func (h *ChatHandler) UploadAttachment(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	upload, file, ok := formUpload(c, "file", h.maxFileSize)
	if !ok {
		return
	}
	defer file.Close()

	attachment, err := h.chat.UploadAttachment(c.Request.Context(), u, id, upload)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "File uploaded", attachment)
}

// DeleteMessage handles DELETE /api/events/:id/chat/:messageId
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageId")
	if !ok {
		return
	}

	if err := h.chat.Delete(c.Request.Context(), u, id, messageID); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "Message deleted", nil)
}
