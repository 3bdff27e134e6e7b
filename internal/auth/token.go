package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenVerifier turns a raw bearer token into a trusted principal id.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (VerifiedToken, error)
}

// RevocationChecker reports whether a token id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTManager issues and verifies HS256 access tokens.
type JWTManager struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	clock       quartz.Clock
	revocations RevocationChecker
}

// JWTConfig configures a JWTManager.
type JWTConfig struct {
	Secret      string
	Issuer      string
	TTL         time.Duration
	Clock       quartz.Clock
	Revocations RevocationChecker
}

// NewJWTManager constructs a JWTManager.
func NewJWTManager(cfg JWTConfig) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: jwt secret required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &JWTManager{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		ttl:         cfg.TTL,
		clock:       cfg.Clock,
		revocations: cfg.Revocations,
	}, nil
}

// Issue signs a new access token for principalID.
func (m *JWTManager) Issue(principalID string) (IssuedToken, error) {
	now := m.clock.Now().UTC()
	expiresAt := now.Add(m.ttl)
	tokenID := uuid.NewString()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   principalID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return IssuedToken{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt, TokenID: tokenID}, nil
}

// Verify validates signature, time claims and revocation state.
func (m *JWTManager) Verify(ctx context.Context, raw string) (VerifiedToken, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return VerifiedToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := m.clock.Now()
	if !claims.VerifyExpiresAt(now, true) {
		return VerifiedToken{}, ErrExpiredToken
	}
	if !claims.VerifyNotBefore(now, false) {
		return VerifiedToken{}, fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	}
	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return VerifiedToken{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" || claims.ID == "" {
		return VerifiedToken{}, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return VerifiedToken{}, fmt.Errorf("auth: check revocation: %w", err)
		}
		if revoked {
			return VerifiedToken{}, ErrTokenRevoked
		}
	}

	return VerifiedToken{
		PrincipalID: claims.Subject,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
