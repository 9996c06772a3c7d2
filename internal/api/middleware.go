// Package api implements the offcuts REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/starford/offcuts/internal/auth/token"
	"github.com/starford/offcuts/internal/models"
)

type claimsKey struct{}

func claimsFrom(ctx context.Context) (token.Claims, bool) {
	cl, ok := ctx.Value(claimsKey{}).(token.Claims)
	return cl, ok
}

// Authenticator checks bearer tokens. A nil Authenticator, or one without a
// token manager, runs in disabled mode and lets every request through.
type Authenticator struct {
	tokens *token.Manager
}

// NewAuthenticator returns an Authenticator over tokens. tokens may be nil.
func NewAuthenticator(tokens *token.Manager) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Enabled reports whether tokens are enforced.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.tokens != nil
}

// Middleware attaches the claims of a valid bearer token to the request context.
// Requests without an Authorization header pass through anonymously; a present
// but invalid token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		cl, err := a.tokens.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, cl)))
	})
}

// RequireUser rejects anonymous requests when tokens are enforced.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Enabled() {
			if _, ok := claimsFrom(r.Context()); !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests that do not carry an admin token when tokens are enforced.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Enabled() {
			cl, ok := claimsFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			if cl.Role != models.RoleAdmin {
				writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actingAs reports whether the caller may act on behalf of login.
// Admins may act for anyone.
func (a *Authenticator) actingAs(r *http.Request, login string) bool {
	if !a.Enabled() {
		return true
	}
	cl, ok := claimsFrom(r.Context())
	if !ok {
		return false
	}
	return cl.Login == login || cl.Role == models.RoleAdmin
}

// isAdmin reports whether the caller holds an admin token. In disabled mode everyone is.
func (a *Authenticator) isAdmin(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	cl, ok := claimsFrom(r.Context())
	return ok && cl.Role == models.RoleAdmin
}
