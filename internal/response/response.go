package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/logger"
)

// Response is the standard success envelope of the API
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the standard error envelope of the API
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

// SuccessResponse sends a success envelope
func SuccessResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseWithMessage sends an error envelope with a custom message
func ErrorResponseWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
	})
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind common.Kind) int {
	switch kind {
	case common.KindAuthentication:
		return http.StatusUnauthorized
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindConflict:
		return http.StatusConflict
	case common.KindStorage:
		return http.StatusBadGateway
	case common.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes the envelope for err and aborts the chain. Internal
// details are logged, never returned to the client.
func FromError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := StatusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.HTTP().Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", kind,
			"error", err)
	}

	message := common.Message(err)
	switch kind {
	case common.KindStorage:
		message = "storage unavailable"
	case common.KindTimeout:
		message = "request timed out"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
		Kind:    string(kind),
	})
}
