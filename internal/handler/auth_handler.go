package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

type AuthHandler struct {
	service        *service.AuthService
	tokenTTL       time.Duration
	frontendOrigin string
}

func NewAuthHandler(service *service.AuthService, tokenTTL time.Duration, frontendOrigin string) *AuthHandler {
	return &AuthHandler{service: service, tokenTTL: tokenTTL, frontendOrigin: frontendOrigin}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.Username == "" || payload.Password == "" {
		writeError(w, apierror.New("BAD_REQUEST", "username and password required", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setAccessCookie(w, r, tokens.AccessToken, h.tokenTTL)
	writeSuccess(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.Username == "" || payload.Password == "" {
		writeError(w, apierror.New("BAD_REQUEST", "username and password required", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setAccessCookie(w, r, tokens.AccessToken, h.tokenTTL)
	writeSuccess(w, http.StatusCreated, tokens)
}

// Logout never fails the caller: an invalid or missing token is swallowed
// and the cookies are cleared regardless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if tok, ok := middleware.ResolveToken(r); ok {
		h.service.Logout(r.Context(), tok)
	}

	clearSessionCookies(w, r)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true})
}

// LogoutClear unconditionally clears the session cookies and bounces the
// browser back to the frontend. Used as a recovery hatch for stuck sessions.
func (h *AuthHandler) LogoutClear(w http.ResponseWriter, r *http.Request) {
	clearSessionCookies(w, r)
	clearStateCookie(w, r)
	http.Redirect(w, r, h.frontendOrigin, http.StatusFound)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrMissingToken)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": claims})
}
