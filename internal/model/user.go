package model

import "time"

// User is a credential-store row. PasswordHash is empty for accounts that
// were auto-provisioned from a provider login; such accounts can never pass
// local password login. LastLogoutAt is the revocation watermark: any session
// token issued at or before it is rejected at the gate.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	LastLogoutAt *time.Time `json:"last_logout_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SessionClaims are the verified claims of a session token. Sub is the only
// identity claim used for authorization decisions; Name is display-only.
type SessionClaims struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	IssuedAt int64  `json:"iat"`
}

// TokenResponse is the body returned by login and the provider-completion
// flows. Field names mirror the OAuth2 token endpoint convention.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
