package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *memory.Store
	tokens *auth.TokenManager
	mux    *http.ServeMux
	users  map[string]models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenManager("test-secret", "casetrack-test", time.Hour)
	authn := auth.NewAuthenticator(tokens, store, zerolog.Nop())

	mux := http.NewServeMux()
	NewHealthHandler(testNow, store).Register(mux)
	NewAuthHandler(store, tokens, authn).Register(mux)
	NewUserHandler(store, authn).Register(mux)
	NewCaseHandler(store, authn, func() time.Time { return testNow }).Register(mux)

	env := &testEnv{store: store, tokens: tokens, mux: mux, users: map[string]models.User{}}
	for _, role := range []string{models.AdminRole, models.AnalystRole, models.ViewerRole} {
		hash, err := auth.HashPassword("password-" + role)
		require.NoError(t, err)
		u, err := store.CreateUser(context.Background(), models.User{
			Username:     role,
			Email:        role + "@example.com",
			Role:         role,
			Permissions:  authz.DefaultPermissions(role),
			Dashboards:   authz.DefaultDashboards(role),
			PasswordHash: hash,
		})
		require.NoError(t, err)
		env.users[role] = u
	}
	return env
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, as, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		token, err := e.tokens.Generate(e.users[as])
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}
