package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

func newTokenID() string { return uuid.NewString() }

type ctxKey int

// ClaimsKey is where the authentication middleware stores the verified
// claims on the request context.
const ClaimsKey ctxKey = 1

// Claims is the payload of both token kinds. Subject carries the user
// id; Role is only meaningful on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Keys signs and verifies the two token kinds. Access tokens are
// short-lived; refresh tokens are long-lived and are additionally
// tracked server-side by hash so they can be revoked.
type Keys struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewKeys(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Keys, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	return &Keys{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (k *Keys) MintAccessToken(userID, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.accessTTL)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (k *Keys) MintRefreshToken(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(k.refreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// A fresh ID makes each minted token unique even within
			// the same second, so its hash is unique too.
			ID: newTokenID(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken distinguishes an expired-but-authentic token from
// every other failure so clients know when to refresh.
func (k *Keys) ValidateAccessToken(tokenStr string) (Claims, error) {
	claims, err := k.parse(tokenStr, k.accessSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, apperror.TokenExpired("access token has expired")
		}
		return Claims{}, apperror.TokenInvalid("invalid access token")
	}
	return claims, nil
}

// ValidateRefreshToken folds every failure, expiry included, into the
// invalid-token outcome.
func (k *Keys) ValidateRefreshToken(tokenStr string) (Claims, error) {
	claims, err := k.parse(tokenStr, k.refreshSecret)
	if err != nil {
		return Claims{}, apperror.TokenInvalid("invalid refresh token")
	}
	return claims, nil
}

func (k *Keys) parse(tokenStr string, secret []byte) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Claims{}, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// HashToken returns the hex SHA-256 digest of a token. Only hashes are
// persisted, so a leaked token table cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
