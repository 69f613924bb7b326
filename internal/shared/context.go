package shared

import "context"

type sessionKey struct{}

// ContextWithSession attaches the request's session so the CSRF middleware
// and handlers can reach it without explicit threading.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session placed by the session middleware,
// or nil when called outside of it.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
