package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/char-projects/PokeAPI/internal/model"
)

// AccessTokenCookie is the session-carrying cookie the gate falls back to
// when no Authorization header is present.
const AccessTokenCookie = "access_token"

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*model.SessionClaims, error)
}

type contextKey string

const sessionClaimsContextKey contextKey = "session_claims"

// AuthMiddleware is the authorization gate: it extracts, verifies and
// revocation-checks a session token before admitting a protected request.
type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := ResolveToken(r)
		if !ok {
			writeUnauthorized(w, "missing token")
			return
		}

		claims, err := m.auth.Authenticate(r.Context(), tok)
		if err != nil {
			if errors.Is(err, model.ErrTokenRevoked) {
				writeUnauthorized(w, "token revoked")
			} else {
				writeUnauthorized(w, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), sessionClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveToken finds the session token on a request. The Authorization
// header takes precedence over the session cookie.
func ResolveToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		if tok := strings.TrimSpace(header[7:]); tok != "" {
			return tok, true
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value), true
	}

	return "", false
}

func ClaimsFromContext(ctx context.Context) (*model.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsContextKey).(*model.SessionClaims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
