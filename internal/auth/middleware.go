package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/classhub/classhub/internal/shared"
)

type tokenContextKey struct{}

// ContextWithToken stores the verified token in context.
func ContextWithToken(ctx context.Context, tok VerifiedToken) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, tok)
}

// TokenFromContext returns the verified token for the request.
func TokenFromContext(ctx context.Context) (VerifiedToken, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(VerifiedToken)
	return tok, ok
}

// Authenticator resolves bearer tokens into principal ids. Requests without
// a valid token continue without a principal id so that guards can reject
// them with a structured response.
type Authenticator struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

// Handler wraps next with token verification.
func (a Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok || a.Verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		tok, err := a.Verifier.Verify(r.Context(), raw)
		if err != nil {
			a.logFailure(r, err)
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithPrincipalID(r.Context(), tok.PrincipalID)
		ctx = ContextWithToken(ctx, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a Authenticator) logFailure(r *http.Request, err error) {
	if a.Logger == nil {
		return
	}
	attrs := []any{slog.String("path", r.URL.Path), slog.Any("error", err)}
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken), errors.Is(err, ErrTokenRevoked):
		a.Logger.Debug("bearer token rejected", attrs...)
	default:
		a.Logger.Error("bearer token verification failed", attrs...)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
