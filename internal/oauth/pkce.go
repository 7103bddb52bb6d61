package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/char-projects/PokeAPI/internal/model"
)

// Characters allowed in a code verifier per RFC 7636 (unreserved set).
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const verifierLength = 64

// NewVerifier returns a high-entropy PKCE code verifier.
func NewVerifier() (string, error) {
	buf := make([]byte, verifierLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}

	out := make([]byte, verifierLength)
	for i, b := range buf {
		out[i] = verifierCharset[int(b)%len(verifierCharset)]
	}

	return string(out), nil
}

// ChallengeS256 derives the code challenge for a verifier.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewState returns a random nonce for the authorization request.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Flow drives the Authorization-Code+PKCE flow from the initiator side. In
// the hosted app that side is the browser: the SPA generates the verifier and
// finishes the exchange through the /api/oauth/exchange relay. Flow is the
// same engine for callers embedding this package directly, such as native
// clients or CLIs that cannot run the SPA; the HTTP redirect flow does not
// use it. Each Begin stores a single-use verifier keyed by the state nonce;
// Complete consumes it exactly once, so a replayed callback fails.
type Flow struct {
	client       *Client
	authorizeURL string
	clientID     string
	scope        string
	pending      *cache.Cache
}

func NewFlow(client *Client, authorizeURL, clientID, scope string, ttl time.Duration) *Flow {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Flow{
		client:       client,
		authorizeURL: authorizeURL,
		clientID:     clientID,
		scope:        scope,
		pending:      cache.New(ttl, ttl),
	}
}

// Begin generates a verifier/challenge pair, stores the verifier and returns
// the provider authorization URL plus the state that keys the verifier.
func (f *Flow) Begin(redirectURI string) (authURL string, state string, err error) {
	if f.authorizeURL == "" || f.clientID == "" {
		return "", "", model.ErrProviderMisconfigured
	}

	verifier, err := NewVerifier()
	if err != nil {
		return "", "", err
	}
	state, err = NewState()
	if err != nil {
		return "", "", err
	}

	f.pending.SetDefault(state, verifier)

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {f.clientID},
		"redirect_uri":          {redirectURI},
		"scope":                 {f.scope},
		"code_challenge":        {ChallengeS256(verifier)},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}

	return f.authorizeURL + "?" + params.Encode(), state, nil
}

// Complete consumes the stored verifier for the callback's state and
// exchanges the authorization code. A provider error parameter, a missing
// code, or an unknown/already-used state all terminate this flow instance;
// the caller must restart with Begin.
func (f *Flow) Complete(ctx context.Context, callbackURL string, redirectURI string) (*TokenResponse, error) {
	parsed, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("parse callback url: %w", err)
	}

	q := parsed.Query()
	if provErr := strings.TrimSpace(q.Get("error")); provErr != "" {
		desc := strings.TrimSpace(q.Get("error_description"))
		return nil, fmt.Errorf("provider returned error %q: %s", provErr, desc)
	}

	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		return nil, model.ErrMissingCode
	}

	state := strings.TrimSpace(q.Get("state"))
	stored, found := f.pending.Get(state)
	if !found {
		return nil, model.ErrVerifierNotFound
	}
	f.pending.Delete(state)

	verifier, _ := stored.(string)
	tr, err := f.client.Exchange(ctx, code, redirectURI, verifier)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	return tr, nil
}
