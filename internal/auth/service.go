package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bookstore-api/internal/users"
	"bookstore-api/pkg/apperror"
)

// TokenStore persists refresh-token state for revocation.
type TokenStore interface {
	// ReplaceActive revokes every active token for the user and stores
	// the new hash, as one atomic unit, so two valid refresh tokens
	// never coexist.
	ReplaceActive(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// FindActive returns the record matching the hash that is neither
	// revoked nor expired.
	FindActive(ctx context.Context, userID, tokenHash string) (RefreshToken, error)
	RevokeAllActive(ctx context.Context, userID string) error
}

// UserStore is the slice of the accounts store the credential engine
// needs: lookups among non-deleted users only.
type UserStore interface {
	GetActiveUserByEmail(ctx context.Context, email string) (users.User, error)
	GetActiveUserByID(ctx context.Context, userID string) (users.User, error)
}

type Service struct {
	keys   *Keys
	tokens TokenStore
	users  UserStore
}

func NewService(keys *Keys, tokens TokenStore, userStore UserStore) (*Service, error) {
	if keys == nil || tokens == nil || userStore == nil {
		return nil, fmt.Errorf("keys, tokens and users are all required")
	}
	return &Service{keys: keys, tokens: tokens, users: userStore}, nil
}

// Login verifies the credentials and issues a fresh token pair. The
// failure is identical whether the email or the password was wrong, so
// accounts cannot be enumerated. Each login supersedes all previously
// issued refresh tokens for the account.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.NotFound("")) {
			return TokenPair{}, apperror.AuthInvalid("invalid email or password")
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, apperror.AuthInvalid("invalid email or password")
	}

	accessToken, err := s.keys.MintAccessToken(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, expiresAt, err := s.keys.MintRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.tokens.ReplaceActive(ctx, user.ID, HashToken(refreshToken), expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh trades a valid refresh token for a new access token. The
// refresh token itself is not rotated; rotation happens only at login
// and logout boundaries.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.NoToken("refresh token is required")
	}

	claims, err := s.keys.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	// Matching by hash covers revoked, expired and tampered tokens in
	// one lookup.
	if _, err := s.tokens.FindActive(ctx, claims.Subject, HashToken(refreshToken)); err != nil {
		if errors.Is(err, apperror.NotFound("")) {
			return "", apperror.TokenInvalid("invalid refresh token")
		}
		return "", err
	}

	user, err := s.users.GetActiveUserByID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}

	return s.keys.MintAccessToken(user.ID, user.Role)
}

// Logout revokes every active refresh token for the user. Logging out
// with none active succeeds silently.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllActive(ctx, userID)
}

// Authenticate verifies the Authorization header of a protected call
// and returns the caller's identity.
func (s *Service) Authenticate(authHeader string) (Claims, error) {
	if authHeader == "" {
		return Claims{}, apperror.NoToken("authorization token is required")
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return Claims{}, apperror.NoToken("authorization token is required")
	}
	return s.keys.ValidateAccessToken(parts[1])
}
