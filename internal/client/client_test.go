package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/config"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/server"
	"github.com/hongminglow/casetrack-be/internal/storage/memory"
)

type testEnv struct {
	srv     *httptest.Server
	store   *memory.Store
	viewer  models.User
	session string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{
		StorageDriver: config.DriverMemory,
		JWTSecret:     "secret",
		JWTIssuer:     "casetrack-test",
		JWTTTL:        time.Hour,
		CORSOrigins:   []string{"*"},
		Admin:         config.AdminBootstrap{Username: "root", Email: "root@example.com", Password: "root-password"},
	}
	store := memory.New()
	_, err := server.EnsureAdmin(ctx, store, cfg.Admin, zerolog.Nop())
	require.NoError(t, err)

	hash, err := auth.HashPassword("viewer-password")
	require.NoError(t, err)
	viewer, err := store.CreateUser(ctx, models.User{
		Username:     "val",
		Email:        "val@example.com",
		Role:         models.ViewerRole,
		Permissions:  authz.DefaultPermissions(models.ViewerRole),
		Dashboards:   authz.DefaultDashboards(models.ViewerRole),
		PasswordHash: hash,
	})
	require.NoError(t, err)

	require.NoError(t, store.UpsertCases(ctx, []models.Case{
		{CaseNumber: "C-1", NervesTreated: 2, OpDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), CaseType: models.CaseTypePrimary, Surgeon: "Dr. Reyes", Specialty: "Orthopedics", Extremity: models.ExtremityUpper, UserStatus: models.StatusValidated, Region: "West"},
		{CaseNumber: "C-2", NervesTreated: 1, OpDate: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), CaseType: models.CaseTypeRevision, Surgeon: "Dr. Chen", Specialty: "Plastics", Extremity: models.ExtremityLower, UserStatus: models.StatusIn, Region: "East"},
	}))

	srv := httptest.NewServer(server.Handler(cfg, store, zerolog.Nop(), time.Now))
	t.Cleanup(srv.Close)
	return &testEnv{
		srv:     srv,
		store:   store,
		viewer:  viewer,
		session: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (e *testEnv) client() *Client {
	return New(e.srv.URL, NewFileStore(e.session))
}

func TestClient_RequiresRestore(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	_, err := c.ListCases(context.Background(), CaseListOptions{})
	assert.ErrorIs(t, err, ErrNotRestored)

	require.NoError(t, c.Restore(context.Background()))
	_, err = c.ListCases(context.Background(), CaseListOptions{})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestClient_LoginPersistsAcrossClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := env.client().Login(ctx, "val", "viewer-password")
	require.NoError(t, err)
	assert.Equal(t, env.viewer.ID, s.User.ID)
	assert.Equal(t, models.DashboardCaseTracking, s.CurrentDashboard)
	assert.Equal(t, "overview", s.CurrentModule)
	require.Len(t, s.Dashboards, 1)

	next := env.client()
	require.NoError(t, next.Restore(ctx))
	restored, err := next.Session()
	require.NoError(t, err)
	assert.Equal(t, s.Token, restored.Token)
	assert.Equal(t, "val", restored.User.Username)

	page, err := next.ListCases(ctx, CaseListOptions{
		Order: cases.Order{Field: cases.SortCaseNumber},
		Page:  pagination.Params{Limit: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C-1", page.Items[0].CaseNumber)

	stats, err := next.CaseStats(ctx, cases.Filter{Region: "east"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCases)
	assert.Equal(t, map[string]int{"Revision": 1}, stats.ByType)
}

func TestClient_LoginRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client().Login(context.Background(), "val", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestClient_ForbiddenIsAPIError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client()
	_, err := c.Login(ctx, "val", "viewer-password")
	require.NoError(t, err)

	err = c.DeleteCase(ctx, "C-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	s, err := c.Session()
	require.NoError(t, err)
	assert.True(t, s.Active(), "a 403 must not end the session")
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client()
	_, err := c.Login(ctx, "val", "viewer-password")
	require.NoError(t, err)

	require.NoError(t, env.store.DeleteUser(ctx, env.viewer.ID))

	_, err = c.ListCases(ctx, CaseListOptions{})
	assert.ErrorIs(t, err, ErrSessionExpired)

	s, err := c.Session()
	require.NoError(t, err)
	assert.False(t, s.Active())
	_, statErr := os.Stat(env.session)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClient_AdminFlows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client()
	s, err := c.Login(ctx, "root@example.com", "root-password")
	require.NoError(t, err)

	users, err := c.ListUsers(ctx, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, users.Total)

	assert.ErrorIs(t, c.DeleteUser(ctx, s.User.ID), ErrSelfDelete)
	require.NoError(t, c.DeleteUser(ctx, env.viewer.ID))

	require.NoError(t, c.DeleteCase(ctx, "C-2"))
	_, err = c.GetCase(ctx, "C-2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	s, err = c.SelectDashboard(ctx, models.DashboardUserManagement, "")
	require.NoError(t, err)
	assert.Equal(t, "users", s.CurrentModule)

	_, err = c.SelectDashboard(ctx, models.DashboardSales, "users")
	assert.Error(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	_, err := fs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	want := Session{Token: "t", User: models.User{ID: 7, Username: "sam"}, CurrentDashboard: "sales"}
	require.NoError(t, fs.Save(ctx, want))
	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.User.Username, got.User.Username)

	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"session":{"token":"old"}}`), 0o600))
	_, err = fs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx))
}
