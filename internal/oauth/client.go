package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/char-projects/PokeAPI/internal/model"
)

// TokenResponse is the provider token endpoint payload. Raw keeps the exact
// bytes so handlers can forward the provider body verbatim.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`

	Raw json.RawMessage `json:"-"`
}

// ProviderError carries the provider's HTTP status and body verbatim. It is
// never downgraded to a different status on the way to the client.
type ProviderError struct {
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, string(e.Body))
}

// UserInfo is the subset of OIDC userinfo claims the completion flow needs.
type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client performs server-side grants against the provider token endpoint.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	userinfoURL  string
	httpClient   *http.Client
}

func NewClient(clientID, clientSecret, tokenURL, userinfoURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		userinfoURL:  userinfoURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Exchange performs the authorization_code grant. codeVerifier may be empty
// for the server-initiated flow that does not use PKCE. client_secret is
// attached only when configured; some providers require it, others reject it.
func (c *Client) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
		"client_id":    {c.clientID},
	}
	if codeVerifier != "" {
		form.Set("code_verifier", codeVerifier)
	}

	return c.tokenRequest(ctx, form)
}

// Refresh performs the refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
	}

	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*TokenResponse, error) {
	if c.tokenURL == "" || c.clientID == "" {
		return nil, model.ErrProviderMisconfigured
	}
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: body}
	}

	tr := &TokenResponse{Raw: body}
	if err := json.Unmarshal(body, tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return tr, nil
}

// FetchUserInfo resolves an opaque provider access token into identity claims
// via the OIDC userinfo endpoint.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if c.userinfoURL == "" {
		return nil, model.ErrProviderMisconfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: body}
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}

	return &info, nil
}
