package auth

import (
	"context"

	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/models"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated caller for one request. It is built from a
// fresh user load so permission changes apply to the next request.
type Session struct {
	User  models.User
	Token string
}

// Can reports whether the session may perform action on tab.
func (s Session) Can(tab string, action authz.Action) bool {
	return authz.Allowed(s.User.Role, s.User.Permissions, tab, action)
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session stored in ctx.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
