package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

type OAuthHandler struct {
	service  *service.OAuthService
	tokenTTL time.Duration
}

func NewOAuthHandler(service *service.OAuthService, tokenTTL time.Duration) *OAuthHandler {
	return &OAuthHandler{service: service, tokenTTL: tokenTTL}
}

// Start redirects the user agent to the provider authorize endpoint. The
// state nonce is pinned in a short-lived cookie for the callback to check.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	redirectURL, state, err := h.service.Start()
	if err != nil {
		writeError(w, err)
		return
	}

	setStateCookie(w, r, state)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback is the provider redirect target. State mismatch is terminal: no
// exchange happens and the flow must be restarted from Start.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if provErr := strings.TrimSpace(q.Get("error")); provErr != "" {
		writeError(w, apierror.New("PROVIDER_REJECTED", "provider returned error", provErr, http.StatusBadRequest))
		return
	}

	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		writeError(w, model.ErrMissingCode)
		return
	}

	// State must match the pinned cookie and be one this instance issued;
	// each issued state admits a single callback.
	state := strings.TrimSpace(q.Get("state"))
	cookie, err := r.Cookie(stateCookie)
	if err != nil || state == "" || cookie.Value != state || !h.service.ConsumeState(state) {
		writeError(w, model.ErrStateMismatch)
		return
	}
	clearStateCookie(w, r)

	tr, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		// Hand the raw code to the frontend so it can retry the exchange
		// client-side; the server-side attempt already consumed nothing.
		slog.Warn("server-side code exchange failed, forwarding code to frontend", "error", err)
		http.Redirect(w, r, h.service.FrontendRetryURL(code), http.StatusFound)
		return
	}

	setTokenCookies(w, r, tr)
	http.Redirect(w, r, h.service.FrontendSuccessURL(tr.AccessToken), http.StatusFound)
}

// Exchange is the client-driven PKCE exchange. The provider response body is
// relayed verbatim, success or failure.
func (h *OAuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.Code == "" || payload.RedirectURI == "" || payload.CodeVerifier == "" {
		writeError(w, apierror.New("BAD_REQUEST", "code, redirect_uri and code_verifier required", "", http.StatusBadRequest))
		return
	}

	tr, err := h.service.Exchange(r.Context(), payload.Code, payload.RedirectURI, payload.CodeVerifier)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookies(w, r, tr)
	writeRawJSON(w, http.StatusOK, tr.Raw)
}

// Refresh accepts the refresh token from the cookie or the body; possession
// is sufficient proof, matching provider semantics.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	refreshToken := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		refreshToken = strings.TrimSpace(cookie.Value)
	}
	if refreshToken == "" {
		var payload model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			refreshToken = strings.TrimSpace(payload.RefreshToken)
		}
	}
	if refreshToken == "" {
		writeError(w, apierror.New("BAD_REQUEST", "refresh_token required", "", http.StatusBadRequest))
		return
	}

	tr, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookies(w, r, tr)
	writeRawJSON(w, http.StatusOK, tr.Raw)
}

// Complete turns a provider access token into a local session token.
func (h *OAuthHandler) Complete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "access_token required", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Complete(r.Context(), payload.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}

	setAccessCookie(w, r, tokens.AccessToken, h.tokenTTL)
	writeSuccess(w, http.StatusOK, tokens)
}
