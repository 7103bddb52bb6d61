package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/oauth"
)

const (
	refreshTokenCookie = "refresh_token"
	stateCookie        = "oauth_state"
	stateCookieMaxAge  = 5 * time.Minute
)

// sessionCookie is the single place session-cookie attributes are decided.
// Clearing a cookie only works when every attribute matches the set call, so
// both set and clear sites go through here.
func sessionCookie(r *http.Request, name string, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   requestIsSecure(r),
	}
}

func setTokenCookies(w http.ResponseWriter, r *http.Request, tr *oauth.TokenResponse) {
	if tr.AccessToken != "" {
		http.SetCookie(w, sessionCookie(r, middleware.AccessTokenCookie, tr.AccessToken, 0))
	}
	if tr.RefreshToken != "" {
		http.SetCookie(w, sessionCookie(r, refreshTokenCookie, tr.RefreshToken, 0))
	}
}

func setAccessCookie(w http.ResponseWriter, r *http.Request, accessToken string, maxAge time.Duration) {
	http.SetCookie(w, sessionCookie(r, middleware.AccessTokenCookie, accessToken, int(maxAge.Seconds())))
}

func clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, sessionCookie(r, middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, sessionCookie(r, refreshTokenCookie, "", -1))
}

func setStateCookie(w http.ResponseWriter, r *http.Request, state string) {
	http.SetCookie(w, sessionCookie(r, stateCookie, state, int(stateCookieMaxAge.Seconds())))
}

func clearStateCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, sessionCookie(r, stateCookie, "", -1))
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
