package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken indicates an unparseable or badly signed token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("auth: expired token")
	// ErrTokenRevoked indicates a token revoked by logout.
	ErrTokenRevoked = errors.New("auth: token revoked")
	// ErrUserNotFound indicates that no account matches the lookup.
	ErrUserNotFound = errors.New("auth: user not found")
)

// User is the credential record used for login.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claims carries only registered claims. Role or permission claims are never
// issued because authorization always reloads the principal.
type Claims struct {
	jwt.RegisteredClaims
}

// VerifiedToken is the trusted result of token verification.
type VerifiedToken struct {
	PrincipalID string
	TokenID     string
	ExpiresAt   time.Time
}

// IssuedToken is returned to clients after login.
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenID     string    `json:"-"`
}
