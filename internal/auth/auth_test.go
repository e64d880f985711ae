package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

type stubUsers map[int64]models.User

func (s stubUsers) GetUser(_ context.Context, id int64) (models.User, error) {
	u, ok := s[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "casetrack-test", time.Hour)
	token, err := tm.Generate(models.User{ID: 42, Username: "alice", Email: "a@example.com", Role: models.AnalystRole})
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.AnalystRole, claims.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", "casetrack-test", time.Hour)
	token, err := tm.Generate(models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenManager("other", "casetrack-test", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("secret", "someone-else", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokenManager("secret", "casetrack-test", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_Require(t *testing.T) {
	tm := NewTokenManager("secret", "casetrack-test", time.Hour)
	users := stubUsers{7: {ID: 7, Username: "viewer", Role: models.ViewerRole}}
	a := NewAuthenticator(tm, users, zerolog.Nop())

	var seen Session
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	gone, err := tm.Generate(models.User{ID: 99})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+gone)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tm.Generate(users[7])
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), seen.User.ID)
	assert.Equal(t, token, seen.Token)
}

func TestRequireTab(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	viewer := Session{User: models.User{Role: models.ViewerRole, Permissions: []models.TabPermission{
		{Tab: models.TabAllCases, Level: models.LevelRead},
	}}}
	admin := Session{User: models.User{Role: models.AdminRole}}

	tests := []struct {
		name    string
		session *Session
		action  authz.Action
		want    int
	}{
		{"no session", nil, authz.View, http.StatusUnauthorized},
		{"viewer read", &viewer, authz.View, http.StatusNoContent},
		{"viewer edit", &viewer, authz.Edit, http.StatusForbidden},
		{"admin edit", &admin, authz.Edit, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.session != nil {
				req = req.WithContext(WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()
			RequireTab(models.TabAllCases, tt.action, ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
