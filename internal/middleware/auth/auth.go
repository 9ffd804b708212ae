// Package auth authenticates bearer tokens and attaches the caller to the
// gin context.
package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/response"
)

const (
	identityKey = "auth.identity"
	userKey     = "auth.user"
)

// Provisioner resolves an identity to its local user
type Provisioner interface {
	EnsureUser(ctx context.Context, id identity.Identity) (*user.User, error)
}

// Authenticate verifies the Authorization header and stores the identity
func Authenticate(verifier identity.Verifier) gin.HandlerFunc {
	log := logger.Auth()
	return func(c *gin.Context) {
		token, err := identity.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			metrics.AuthFailures.Inc()
			response.FromError(c, err)
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			metrics.AuthFailures.Inc()
			log.Debug("Token rejected", "path", c.Request.URL.Path, "error", err)
			response.FromError(c, err)
			return
		}

		c.Set(identityKey, *id)
		c.Next()
	}
}

// LoadUser resolves the authenticated identity to a user, provisioning it on
// first use. Must run after Authenticate.
func LoadUser(users Provisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			response.FromError(c, identity.ErrMissingToken)
			return
		}

		u, err := users.EnsureUser(c.Request.Context(), id)
		if err != nil {
			response.FromError(c, err)
			return
		}

		c.Set(userKey, u)
		c.Next()
	}
}

// IdentityFrom returns the verified identity of the request
func IdentityFrom(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

// UserFrom returns the user loaded by LoadUser
func UserFrom(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}

// SetUser stores u on the context. Used by handlers that provision explicitly.
func SetUser(c *gin.Context, u *user.User) {
	c.Set(userKey, u)
}
