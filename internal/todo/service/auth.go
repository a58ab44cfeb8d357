package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/pkg/cryptox"
	"github.com/tidylist/tidylist/pkg/idx"
	"github.com/tidylist/tidylist/pkg/jwtx"
	"github.com/tidylist/tidylist/pkg/slogx"
)

// AuthService handles account registration, login and profile lookup.
// Tokens are short-lived EdDSA JWTs minted against the key manager.
type AuthService struct {
	Store      store.Store
	KeyManager *jwtx.KeyManager
	Issuer     string
	AccessTTL  time.Duration
}

// AuthResult pairs a freshly minted access token with the user it belongs to.
type AuthResult struct {
	Token string
	User  domain.User
}

// Register creates a new account and signs the user in. Emails are
// normalised to lowercase so lookups are case-insensitive.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("registration rejected, email already registered", slog.String("email", email))
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// Read back so the caller sees the store-assigned timestamps.
	user, err = s.Store.Users().GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the credentials and mints an access token. A missing
// account and a wrong password produce the same error so callers cannot
// probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed, bad password", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// Profile fetches the account for an authenticated user id.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *AuthService) mintToken(user domain.User) (string, error) {
	signer := s.KeyManager.GetSigner()
	if signer == nil {
		return "", errors.New("no signing keys available")
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Email, user.Name, ttl, s.Issuer, time.Now())
	return signer.Sign(claims)
}
