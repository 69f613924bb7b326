package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/thejar/jar/internal/platform/httpx"
	"github.com/thejar/jar/internal/shared"
)

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.UserID != 0
}

// CurrentIdentity returns the request identity or ErrUnauthenticated.
func CurrentIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

// Middleware resolves the session user into an Identity for downstream
// handlers.
type Middleware struct {
	Logger *slog.Logger
}

// ResolveIdentity reads the session user and, when present, attaches the
// identity to the request context. It never rejects; RequireUser does.
func (m Middleware) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			if m.Logger != nil {
				m.Logger.Error("parse session user id", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithIdentity(r.Context(), Identity{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects unauthenticated requests with a 401 problem response.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Respond maps access-control failures onto their HTTP status and defers
// everything else to the shared error responder.
func Respond(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "sign in required")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, ErrDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient access")
	default:
		httpx.RespondError(w, err)
	}
}
