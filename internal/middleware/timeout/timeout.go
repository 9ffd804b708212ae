// Package timeout bounds the time a request may spend in handlers and
// storage calls.
package timeout

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/response"
)

// Timeout attaches a deadline to the request context. Storage calls observe
// it; a handler that returns without writing after the deadline gets a 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			response.FromError(c, common.NewTimeout("request timed out", ctx.Err()))
		}
	}
}
