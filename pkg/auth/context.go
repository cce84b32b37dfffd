package auth

import (
	"context"
	"net/http"
)

type contextKey string

const claimsCtxKey contextKey = "auth_claims"

// WithClaims attaches verified claims to a request.
func WithClaims(r *http.Request, claims *Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsCtxKey, claims))
}

// ClaimsFrom returns the claims previously attached by the authentication
// middleware, if any.
func ClaimsFrom(r *http.Request) (*Claims, bool) {
	claims, ok := r.Context().Value(claimsCtxKey).(*Claims)
	return claims, ok
}
