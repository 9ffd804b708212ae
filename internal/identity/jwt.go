package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gravadigital/eventhub-api/internal/logger"
)

// Claims are the provider token claims this service reads
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures token verification
type JWTConfig struct {
	// Secret enables HS256 tokens when set.
	Secret string
	// PublicKeys maps key id to a PEM file holding an RSA public key. Enables RS256.
	PublicKeys map[string]string
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// JWTVerifier verifies provider-issued ID tokens
type JWTVerifier struct {
	secret []byte
	keys   map[string]*rsa.PublicKey
	parser *jwt.Parser
	log    *log.Logger
}

// NewJWTVerifier builds a verifier from config, loading any RSA keys from disk
func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	keys := make(map[string]*rsa.PublicKey, len(cfg.PublicKeys))
	for kid, path := range cfg.PublicKeys {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key %q: %w", kid, err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key %q: %w", kid, err)
		}
		keys[kid] = key
	}
	return newJWTVerifier([]byte(cfg.Secret), keys, cfg)
}

// NewJWTVerifierWithKeys builds a verifier from already-parsed RSA keys
func NewJWTVerifierWithKeys(keys map[string]*rsa.PublicKey, cfg JWTConfig) (*JWTVerifier, error) {
	return newJWTVerifier([]byte(cfg.Secret), keys, cfg)
}

func newJWTVerifier(secret []byte, keys map[string]*rsa.PublicKey, cfg JWTConfig) (*JWTVerifier, error) {
	var methods []string
	if len(secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if len(keys) > 0 {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("jwt verifier needs a shared secret or at least one public key")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{
		secret: secret,
		keys:   keys,
		parser: jwt.NewParser(opts...),
		log:    logger.Auth(),
	}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(credential, claims, v.keyFunc)
	if err != nil || !parsed.Valid {
		v.log.Debug("token rejected", "error", err)
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		v.log.Debug("token rejected", "error", "missing subject")
		return nil, ErrInvalidToken
	}

	return &Identity{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(v.secret) == 0 {
			return nil, errors.New("hmac tokens are not accepted")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		kid, _ := token.Header["kid"].(string)
		if key, ok := v.keys[kid]; ok {
			return key, nil
		}
		if kid == "" && len(v.keys) == 1 {
			for _, key := range v.keys {
				return key, nil
			}
		}
		return nil, fmt.Errorf("unknown key id %q", kid)
	default:
		return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
	}
}

// SignHS256 mints a token the HS256 verifier accepts. Used by cmd/gentoken and tests.
func SignHS256(secret string, id Identity, issuer, audience string, ttl time.Duration) (string, error) {
	if id.SubjectID == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := &Claims{
		Email:   id.Email,
		Name:    id.DisplayName,
		Picture: id.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
