package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/evently-app/server/internal/api/problem"
	"github.com/evently-app/server/internal/auth"
	"github.com/evently-app/server/internal/domain/users"
)

type contextKey string

const (
	currentUserKey contextKey = "currentUser"
	bearerTokenKey contextKey = "bearerToken"
)

// UserResolver maps a token's claimed email to a stored user.
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

// Authenticate is the auth gate for all protected routes. Order matters:
// malformed header, then revocation, then signature/expiry, then user
// resolution. It attaches the resolved user and the raw token to the
// request context and has no other side effects.
func Authenticate(manager *auth.JWTManager, revocations auth.RevocationStore, resolver UserResolver, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing or malformed authorization header", err, env)
				return
			}

			if revocations.Contains(token) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Token has been revoked", problem.ErrForbidden, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				title := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					title = "Token has expired"
				}
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, title, err, env)
				return
			}

			user, err := resolver.GetByEmail(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, users.ErrNotFound) {
					problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unknown user", err, env)
					return
				}
				problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, user)
			ctx = context.WithValue(ctx, bearerTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user attached by Authenticate.
func CurrentUser(r *http.Request) *users.User {
	if r == nil {
		return nil
	}
	if user, ok := r.Context().Value(currentUserKey).(*users.User); ok {
		return user
	}
	return nil
}

// BearerToken returns the raw token presented on the request.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token, ok := r.Context().Value(bearerTokenKey).(string); ok {
		return token
	}
	return ""
}

// WithUser attaches a user to the request context; used by handler tests.
func WithUser(r *http.Request, user *users.User) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, user)
	return r.WithContext(ctx)
}

// WithBearerToken attaches a raw token to the request context.
func WithBearerToken(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), bearerTokenKey, token)
	return r.WithContext(ctx)
}
