package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/http/respond"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// UserLoader fetches the current state of a user.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
}

// Authenticator turns bearer tokens into request sessions.
type Authenticator struct {
	tokens *TokenManager
	users  UserLoader
	logger zerolog.Logger
}

// NewAuthenticator constructs the middleware factory.
func NewAuthenticator(tokens *TokenManager, users UserLoader, logger zerolog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Require rejects requests without a valid bearer token for an existing user
// and stores the session in the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.tokens.Parse(raw)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		id, _ := claims.UserID()
		user, err := a.users.GetUser(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusUnauthorized, "user no longer exists")
				return
			}
			a.logger.Error().Err(err).Int64("user_id", id).Msg("load session user")
			respond.Error(w, http.StatusInternalServerError, "failed to load user")
			return
		}
		ctx := WithSession(r.Context(), Session{User: user, Token: raw})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTab allows the request only when the session may perform action on
// tab. It must run after Require.
func RequireTab(tab string, action authz.Action, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFrom(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !s.Can(tab, action) {
			respond.Error(w, http.StatusForbidden, "requires "+action.String()+" access to "+tab)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
