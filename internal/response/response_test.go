package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{common.NewAuthentication("invalid token"), http.StatusUnauthorized, "invalid token"},
		{common.NewAuthorization("not a member of this event"), http.StatusForbidden, "not a member of this event"},
		{common.NewNotFound("event not found"), http.StatusNotFound, "event not found"},
		{common.NewValidation("rating must be between 1 and 5"), http.StatusBadRequest, "rating must be between 1 and 5"},
		{fmt.Errorf("wrapped: %w", common.NewConflict("already joined")), http.StatusConflict, "already joined"},
		{common.NewStorage("query failed", errors.New("dial tcp: refused")), http.StatusBadGateway, "storage unavailable"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			FromError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Error)
			assert.NotContains(t, w.Body.String(), "dial tcp")
		})
	}
}

func TestSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessResponse(c, http.StatusCreated, "Event created", gin.H{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Event created","data":{"id":"1"}}`, w.Body.String())
}
