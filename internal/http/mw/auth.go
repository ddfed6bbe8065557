// Package mw contains HTTP middleware for the halcyon-api.
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// ContextKey is a type for context keys.
type ContextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey ContextKey = "user_claims"

// UserClaims represents the authenticated principal from either auth
// source.
type UserClaims struct {
	UserID   string
	Email    string
	IsAPIKey bool // true when authenticated via API key
}

// Auth returns an authentication middleware that accepts both session
// JWTs and hh_ API keys in the Authorization header.
func Auth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			token := authHeader
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			claims, err := validate(r.Context(), authSvc, token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validate(ctx context.Context, authSvc *service.AuthService, token string) (*UserClaims, error) {
	if strings.HasPrefix(token, "hh_") {
		claims, err := authSvc.ValidateAPIKey(ctx, token)
		if err != nil {
			return nil, err
		}
		return &UserClaims{UserID: claims.UserID, Email: claims.Email, IsAPIKey: true}, nil
	}

	claims, err := authSvc.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &UserClaims{UserID: claims.UserID, Email: claims.Email}, nil
}

// GetUserClaims retrieves user claims from context.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, ok := ctx.Value(UserClaimsKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}
