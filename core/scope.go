package core

import "context"

// Scope describes what the authenticated user is allowed to see.
// It is built once per request from the session and passed explicitly down to the storage layer.
type Scope struct {
	UserID         int
	Username       string
	IsAdmin        bool
	EducationLevel EducationLevel
}

// Unrestricted reports whether the scope sees every row:
// admins, and sessions without an education level.
func (s Scope) Unrestricted() bool {
	return s.IsAdmin || s.EducationLevel == ""
}

type scopeContextKey struct{}

// WithScope stores the request Scope in ctx.
func WithScope(ctx context.Context, s Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext returns the Scope stored in ctx, if any.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	s, ok := ctx.Value(scopeContextKey{}).(Scope)
	return s, ok
}
