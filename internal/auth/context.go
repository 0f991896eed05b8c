package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated identity through a request. Scope
// roles on households and stores are resolved per resource, not here.
type AuthContext struct {
	UserID    string
	Email     string
	Scopes    []string
	SessionID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

func Email(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Email
}

func HasScope(ctx context.Context, scope string) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	for _, s := range ac.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func IsAdmin(ctx context.Context) bool {
	return HasScope(ctx, "admin")
}
