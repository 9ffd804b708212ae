// Package identity maps an opaque bearer credential to the stable subject id
// issued by the external identity provider.
package identity

import (
	"context"
	"strings"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
)

// Identity is what the provider vouches for
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Verifier resolves a bearer credential. Every call re-verifies; there is no
// caching and no retry. Any failure is an authentication error.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

var (
	ErrMissingToken = common.NewAuthentication("missing bearer token")
	ErrInvalidToken = common.NewAuthentication("invalid or expired token")
)

// TokenFromHeader extracts the credential from an Authorization header value
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// StaticVerifier resolves credentials from a fixed table. Used in tests and
// local development.
type StaticVerifier map[string]Identity

func (v StaticVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingToken
	}
	id, ok := v[credential]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
