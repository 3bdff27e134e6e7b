package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(principalID string) (IssuedToken, error)
}

// TokenRevoker revokes access tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	issuer  TokenIssuer
	revoker TokenRevoker
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer TokenIssuer, revoker TokenRevoker) *Service {
	return &Service{repo: repo, issuer: issuer, revoker: revoker}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (IssuedToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return IssuedToken{}, err
	}
	return s.issuer.Issue(user.ID)
}

// Logout revokes the given token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, tok VerifiedToken) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, tok.TokenID, tok.ExpiresAt)
}
