// Package handlers translates HTTP requests into service calls.
package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/middleware/auth"
	"github.com/gravadigital/eventhub-api/internal/response"
	"github.com/gravadigital/eventhub-api/internal/services"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// multipartOverhead is allowed on top of the file size limit for form fields and boundaries
const multipartOverhead = 1 << 20

// currentUser returns the caller loaded by the auth middleware, writing a 401 when absent
func currentUser(c *gin.Context) (*user.User, bool) {
	u, ok := auth.UserFrom(c)
	if !ok {
		response.FromError(c, identity.ErrMissingToken)
		return nil, false
	}
	return u, true
}

// pathUUID parses a path parameter, writing a 400 when it is not a UUID
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := validation.ParseUUID(c.Param(name), name)
	if err != nil {
		response.FromError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body, writing a 400 on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.FromError(c, common.NewValidation("invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// formUpload reads a multipart file field into an Upload. The caller closes
// the returned file.
func formUpload(c *gin.Context, field string, limit int64) (services.Upload, multipart.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	file, header, err := c.Request.FormFile(field)
	if err != nil {
		response.FromError(c, common.NewValidation("no "+field+" file provided"))
		return services.Upload{}, nil, false
	}

	return services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, true
}
