package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type provisionerFunc func(ctx context.Context, id identity.Identity) (*user.User, error)

func (f provisionerFunc) EnsureUser(ctx context.Context, id identity.Identity) (*user.User, error) {
	return f(ctx, id)
}

func newRouter(p Provisioner) *gin.Engine {
	verifier := identity.StaticVerifier{"good": {SubjectID: "sub-1", Email: "ada@example.com", DisplayName: "Ada"}}
	r := gin.New()
	r.GET("/me", Authenticate(verifier), LoadUser(p), func(c *gin.Context) {
		u, ok := UserFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": u.Email})
	})
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndLoadUser(t *testing.T) {
	var seen identity.Identity
	r := newRouter(provisionerFunc(func(_ context.Context, id identity.Identity) (*user.User, error) {
		seen = id
		return user.NewUser(user.Profile{SubjectID: id.SubjectID, Email: id.Email}), nil
	}))

	w := serve(r, "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"ada@example.com"}`, w.Body.String())
	assert.Equal(t, "sub-1", seen.SubjectID)
}

func TestAuthenticateRejects(t *testing.T) {
	r := newRouter(provisionerFunc(func(context.Context, identity.Identity) (*user.User, error) {
		t.Fatal("provisioner must not run for rejected tokens")
		return nil, nil
	}))

	for name, header := range map[string]string{"missing": "", "not bearer": "Basic abc", "unknown token": "Bearer bad"} {
		t.Run(name, func(t *testing.T) {
			w := serve(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(common.KindAuthentication), body.Kind)
		})
	}
}

func TestLoadUserPropagatesErrors(t *testing.T) {
	r := newRouter(provisionerFunc(func(context.Context, identity.Identity) (*user.User, error) {
		return nil, common.NewStorage("lookup failed", errors.New("connection reset"))
	}))

	w := serve(r, "Bearer good")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
