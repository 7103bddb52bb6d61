package token

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

// Codec signs and verifies session tokens. Tokens are stateless: the gate
// combines Verify with the per-user revocation watermark, the codec itself
// only guarantees signature and expiry.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token for the subject. Name is carried for display
// only and must never drive authorization decisions.
func (c *Codec) Issue(subject string, displayName string) (string, error) {
	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"name": displayName,
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttl).Unix(),
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and extracts the claims.
func (c *Codec) Verify(tokenString string) (*model.SessionClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	claims := claimsFromMap(claimsMap)
	if claims.Sub == "" {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}

func claimsFromMap(claimsMap jwt.MapClaims) *model.SessionClaims {
	claims := &model.SessionClaims{}
	claims.Sub, _ = claimsMap["sub"].(string)
	claims.Name, _ = claimsMap["name"].(string)
	if iat, ok := claimsMap["iat"].(float64); ok {
		claims.IssuedAt = int64(iat)
	}
	return claims
}
