package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/devnet/api/pkg/token"
)

// headerAuthToken is the token transport header; the API predates the
// Authorization: Bearer convention and clients still send this one.
const headerAuthToken = "x-auth-token"

type authContextKey string

const contextKeyUser authContextKey = "devnet-auth-user"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid token before invoking
// the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth verifies the x-auth-token header and enriches the context
// with the resolved user id. Verification is pure: no store is consulted
// and nothing is mutated.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, string, bool) {
	raw := strings.TrimSpace(req.Header.Get(headerAuthToken))
	if raw == "" {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return req.Context(), "", false
	}
	claims, err := token.Parse(raw, r.cfg.JWTSecret)
	if err != nil {
		r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
		writeMessage(w, http.StatusUnauthorized, "Token not valid")
		return req.Context(), "", false
	}
	userID := claims.User.ID
	ctx := context.WithValue(req.Context(), contextKeyUser, userID)
	return ctx, userID, true
}

// userIDFromContext extracts the authenticated user id from context.
func userIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(contextKeyUser)
	if value == nil {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
