package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/quillworks/pressgate/internal/gateway/domain"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/cryptox"
	"github.com/quillworks/pressgate/pkg/idx"
	"github.com/quillworks/pressgate/pkg/slogx"
	"github.com/quillworks/pressgate/pkg/tokenx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrRefreshExpired     = errors.New("refresh_token_expired")
)

// AuthService implements the account flows the gateway fronts: register,
// login, token refresh and profile lookup.
type AuthService struct {
	Store store.Store
	Codec *tokenx.Codec
}

// Register creates a user with an argon2id password hash and issues a token
// pair so a fresh signup is immediately signed in.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         string(tokenx.RoleUser),
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return s.issuePair(user)
}

// Login verifies credentials and issues a token pair. Lookup failure and
// password mismatch collapse into one error so a caller cannot probe which
// emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("login rejected", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(user)
}

// Refresh exchanges a valid refresh token for a fresh pair. The subject must
// still exist; a deleted account invalidates its refresh tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	p, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, tokenx.ErrExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	return s.issuePair(user)
}

// Me returns the profile behind an authenticated principal.
func (s *AuthService) Me(ctx context.Context, subjectID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, subjectID)
}

func (s *AuthService) issuePair(user domain.User) (*domain.TokenPair, error) {
	principal := tokenx.Principal{
		SubjectID:   user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        tokenx.ParseRole(user.Role),
	}

	access, err := s.Codec.IssueAccess(principal)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.IssueRefresh(principal)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Codec.AccessTTL().Seconds()),
	}, nil
}
