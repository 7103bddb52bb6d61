package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/token"
)

const minPasswordLength = 4

const bcryptCost = 10

// UserStore is the slice of the credential store the auth core needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	SetLastLogout(ctx context.Context, username string, at time.Time) error
}

// AuthService reconciles the two trust sources (local password store and the
// external provider) into one session token representation.
type AuthService struct {
	users        UserStore
	codec        *token.Codec
	demoPassword string
}

func NewAuthService(users UserStore, codec *token.Codec, demoPassword string) *AuthService {
	return &AuthService{users: users, codec: codec, demoPassword: demoPassword}
}

// Login authenticates a local credential pair. A registered user is checked
// against its stored hash; an unknown username falls back to the shared demo
// password. Both failure paths return the same error so usernames cannot be
// enumerated through login.
func (s *AuthService) Login(ctx context.Context, username string, password string) (model.TokenResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.TokenResponse{}, model.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		// Empty hash means provider-only account; bcrypt rejects it.
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return model.TokenResponse{}, model.ErrInvalidCredentials
		}
	case errors.Is(err, model.ErrUserNotFound):
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.demoPassword)) != 1 {
			return model.TokenResponse{}, model.ErrInvalidCredentials
		}
	default:
		return model.TokenResponse{}, err
	}

	return s.IssueSession(username)
}

// Register creates a local account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, username string, password string) (model.TokenResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.TokenResponse{}, model.ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return model.TokenResponse{}, model.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	err = s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.TokenResponse{}, err
	}

	return s.IssueSession(username)
}

// Logout moves the subject's revocation watermark. Best-effort: an invalid or
// absent token is swallowed, the caller always sees success.
func (s *AuthService) Logout(ctx context.Context, tokenString string) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return
	}

	if err := s.users.SetLastLogout(ctx, claims.Sub, time.Now()); err != nil &&
		!errors.Is(err, model.ErrUserNotFound) {
		slog.Warn("logout watermark update failed", "subject", claims.Sub, "error", err)
	}
}

// Authenticate verifies a session token and checks it against the subject's
// revocation watermark. A token is valid iff the signature verifies, it has
// not expired, and it was issued strictly after the last logout.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.SessionClaims, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, claims.Sub)
	if errors.Is(err, model.ErrUserNotFound) {
		// Demo-password sessions have no user row and no watermark.
		return claims, nil
	}
	if err != nil {
		return nil, err
	}

	if user.LastLogoutAt != nil && claims.IssuedAt <= user.LastLogoutAt.Unix() {
		return nil, model.ErrTokenRevoked
	}

	return claims, nil
}

// EnsureUser provisions a provider-only account on first provider login. The
// empty password hash keeps the account out of local password login forever.
func (s *AuthService) EnsureUser(ctx context.Context, username string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	err = s.users.Create(ctx, model.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, model.ErrUsernameTaken) {
		// Lost a provisioning race; the row exists, which is all we need.
		return nil
	}
	return err
}

// IssueSession mints a session token for the subject, identically for local
// and provider logins.
func (s *AuthService) IssueSession(username string) (model.TokenResponse, error) {
	signed, err := s.codec.Issue(username, username)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.codec.TTL().Seconds()),
	}, nil
}
