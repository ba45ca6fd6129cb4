package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskman/internal/common"
	"taskman/internal/server/auth"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// requireAuth validates the bearer token on protected routes and stores the
// verified claims in the request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		claims := a.auth.Validator().Validate(token)
		if claims == nil {
			respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the verified claims stored by requireAuth,
// or nil on unprotected routes.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}
