package service

import (
	"context"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/oauth"
)

const stateTTL = 5 * time.Minute

// OAuthService drives the server-initiated provider flow and turns provider
// identities into local sessions.
type OAuthService struct {
	client       *oauth.Client
	auth         *AuthService
	authorizeURL string
	clientID     string
	scope        string
	callbackURL  string
	frontend     string
	states       *cache.Cache
}

func NewOAuthService(client *oauth.Client, auth *AuthService, authorizeURL, clientID, scope, callbackURL, frontendOrigin string) *OAuthService {
	return &OAuthService{
		client:       client,
		auth:         auth,
		authorizeURL: authorizeURL,
		clientID:     clientID,
		scope:        scope,
		callbackURL:  callbackURL,
		frontend:     frontendOrigin,
		states:       cache.New(stateTTL, stateTTL),
	}
}

// Start builds the provider authorization URL for the redirect flow. This
// variant carries no PKCE challenge; the state nonce travels in a short-lived
// cookie and guards the callback against request forgery.
func (s *OAuthService) Start() (redirectURL string, state string, err error) {
	if s.authorizeURL == "" || s.clientID == "" {
		return "", "", model.ErrProviderMisconfigured
	}

	state, err = oauth.NewState()
	if err != nil {
		return "", "", err
	}

	s.states.SetDefault(state, true)

	params := url.Values{
		"response_type": {"code"},
		"client_id":     {s.clientID},
		"redirect_uri":  {s.callbackURL},
		"scope":         {s.scope},
		"state":         {state},
	}

	return s.authorizeURL + "?" + params.Encode(), state, nil
}

// ConsumeState reports whether the state was issued by Start and has not been
// used before. Each state admits exactly one callback.
func (s *OAuthService) ConsumeState(state string) bool {
	if state == "" {
		return false
	}

	if _, found := s.states.Get(state); !found {
		return false
	}
	s.states.Delete(state)
	return true
}

// HandleCallback exchanges the authorization code server-side. State has
// already been validated against the cookie by the handler.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (*oauth.TokenResponse, error) {
	return s.client.Exchange(ctx, code, s.callbackURL, "")
}

// Exchange is the client-driven PKCE variant: the browser supplies the code
// verifier it generated at login initiation.
func (s *OAuthService) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*oauth.TokenResponse, error) {
	return s.client.Exchange(ctx, code, redirectURI, codeVerifier)
}

func (s *OAuthService) Refresh(ctx context.Context, refreshToken string) (*oauth.TokenResponse, error) {
	return s.client.Refresh(ctx, refreshToken)
}

// Complete accepts a provider access token, resolves it to an identity,
// provisions a local account when needed and issues a local session token,
// unifying provider identity into the same token format local login uses.
func (s *OAuthService) Complete(ctx context.Context, providerAccessToken string) (model.TokenResponse, error) {
	identity, err := oauth.Identity(ctx, s.client, providerAccessToken)
	if err != nil {
		return model.TokenResponse{}, err
	}

	if err := s.auth.EnsureUser(ctx, identity); err != nil {
		return model.TokenResponse{}, err
	}

	return s.auth.IssueSession(identity)
}

// FrontendSuccessURL carries the provider access token to the frontend
// completion route in the URL fragment, never the query string, so it cannot
// end up in intermediary logs.
func (s *OAuthService) FrontendSuccessURL(accessToken string) string {
	return s.frontend + "/login#access_token=" + url.QueryEscape(accessToken)
}

// FrontendRetryURL forwards the raw code for a client-driven retry after a
// failed server-side exchange.
func (s *OAuthService) FrontendRetryURL(code string) string {
	return s.frontend + "/login#code=" + url.QueryEscape(code)
}
