package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub/internal/auth"
)

var issuedAt = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newClock(t *testing.T) *quartz.Mock {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(issuedAt)
	return clock
}

func newRevocations(t *testing.T, clock quartz.Clock) (*auth.RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRevocationStore(client, "test:revoked:", clock), mr
}

func newManager(t *testing.T, clock quartz.Clock, revocations auth.RevocationChecker) *auth.JWTManager {
	t.Helper()
	m, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:      "test-secret",
		Issuer:      "classhub",
		TTL:         time.Hour,
		Clock:       clock,
		Revocations: revocations,
	})
	require.NoError(t, err)
	return m
}

func TestJWTRoundTrip(t *testing.T) {
	clock := newClock(t)
	m := newManager(t, clock, nil)

	issued, err := m.Issue("principal-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.Equal(t, issuedAt.Add(time.Hour), issued.ExpiresAt)

	tok, err := m.Verify(context.Background(), issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "principal-1", tok.PrincipalID)
	assert.Equal(t, issued.TokenID, tok.TokenID)
}

func TestJWTExpired(t *testing.T) {
	clock := newClock(t)
	m := newManager(t, clock, nil)
	issued, err := m.Issue("principal-1")
	require.NoError(t, err)

	clock.Set(issuedAt.Add(2 * time.Hour))
	_, err = m.Verify(context.Background(), issued.AccessToken)
	require.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTRejectsTampering(t *testing.T) {
	clock := newClock(t)
	m := newManager(t, clock, nil)

	other, err := auth.NewJWTManager(auth.JWTConfig{Secret: "other-secret", Issuer: "classhub", Clock: clock})
	require.NoError(t, err)
	forged, err := other.Issue("principal-1")
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), forged.AccessToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = m.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTRejectsNoneAlgorithm(t *testing.T) {
	clock := newClock(t)
	m := newManager(t, clock, nil)
	claims := jwt.RegisteredClaims{
		ID:        "jti",
		Subject:   "principal-1",
		Issuer:    "classhub",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), raw)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTIssuerMismatch(t *testing.T) {
	clock := newClock(t)
	m := newManager(t, clock, nil)
	other, err := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "elsewhere", Clock: clock})
	require.NoError(t, err)
	issued, err := other.Issue("principal-1")
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), issued.AccessToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	clock := newClock(t)
	revocations, mr := newRevocations(t, clock)
	m := newManager(t, clock, revocations)

	issued, err := m.Issue("principal-1")
	require.NoError(t, err)
	tok, err := m.Verify(context.Background(), issued.AccessToken)
	require.NoError(t, err)

	require.NoError(t, revocations.Revoke(context.Background(), tok.TokenID, tok.ExpiresAt))
	assert.True(t, mr.Exists("test:revoked:"+tok.TokenID))
	assert.Equal(t, time.Hour, mr.TTL("test:revoked:"+tok.TokenID))

	_, err = m.Verify(context.Background(), issued.AccessToken)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	clock := newClock(t)
	revocations, mr := newRevocations(t, clock)

	require.NoError(t, revocations.Revoke(context.Background(), "old", issuedAt.Add(-time.Minute)))
	assert.False(t, mr.Exists("test:revoked:old"))
}

func TestRevocationOutageFailsVerification(t *testing.T) {
	clock := newClock(t)
	revocations, mr := newRevocations(t, clock)
	m := newManager(t, clock, revocations)
	issued, err := m.Issue("principal-1")
	require.NoError(t, err)

	mr.SetError("LOADING redis is loading")
	_, err = m.Verify(context.Background(), issued.AccessToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrTokenRevoked)
}
