package auth

import "time"

// RefreshToken is the persisted record of an issued refresh token. The
// raw token is never stored, only its SHA-256 hash. At most one record
// per user is active (non-revoked, non-expired) at any time.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
