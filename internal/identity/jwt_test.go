package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
)

var ada = Identity{SubjectID: "firebase-uid-1", Email: "ada@example.com", DisplayName: "Ada", AvatarURL: "https://example.com/ada.png"}

func TestHS256RoundTrip(t *testing.T) {
	verifier, err := NewJWTVerifier(JWTConfig{Secret: "secret", Issuer: "issuer", Audience: "eventhub"})
	require.NoError(t, err)

	token, err := SignHS256("secret", ada, "issuer", "eventhub", time.Hour)
	require.NoError(t, err)

	got, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ada, *got)
}

func TestVerifyRejects(t *testing.T) {
	verifier, err := NewJWTVerifier(JWTConfig{Secret: "secret", Issuer: "issuer"})
	require.NoError(t, err)

	expired, err := SignHS256("secret", ada, "issuer", "", -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := SignHS256("other", ada, "issuer", "", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := SignHS256("secret", ada, "someone-else", "", time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), token)
			assert.ErrorIs(t, err, common.ErrAuthentication)
		})
	}
}

func TestRS256WithKeyID(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier, err := NewJWTVerifierWithKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey}, JWTConfig{})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	got, err := verifier.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", got.SubjectID)

	token.Header["kid"] = "unknown"
	signed, err = token.SignedString(key)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, common.ErrAuthentication)

	// HS256 is refused when no secret is configured
	hs, err := SignHS256("secret", ada, "", "", time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), hs)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestMissingSubjectRejected(t *testing.T) {
	verifier, err := NewJWTVerifier(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifierNeedsKeys(t *testing.T) {
	_, err := NewJWTVerifier(JWTConfig{})
	assert.Error(t, err)
}

func TestTokenFromHeader(t *testing.T) {
	_, err := TokenFromHeader("nope")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("")
	assert.ErrorIs(t, err, ErrMissingToken)

	token, err := TokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
}

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{"tok": ada}

	got, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", got.SubjectID)

	_, err = v.Verify(context.Background(), "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
