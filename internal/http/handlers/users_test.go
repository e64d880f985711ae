package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/pagination"
)

func TestListUsers_Paginates(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, models.AdminRole, http.MethodGet, "/users?limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, code)
	page := decodeData[pagination.Page[models.User]](t, body)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.Pages)

	_, body = env.do(t, models.AdminRole, http.MethodGet, "/users?limit=2&offset=2", nil)
	page = decodeData[pagination.Page[models.User]](t, body)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
}

func TestUsers_RequireUsersTab(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, models.AnalystRole, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, models.ViewerRole, http.MethodPost, "/users", dto.CreateUserRequest{})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, models.AdminRole, http.MethodPost, "/users", dto.CreateUserRequest{
		Username: "ana", Email: "ana@example.com", Password: "long-password", Role: "Analyst",
	})
	require.Equal(t, http.StatusCreated, code, body.Message)
	u := decodeData[models.User](t, body)
	assert.Equal(t, models.AnalystRole, u.Role)
	assert.Contains(t, u.Permissions, models.TabPermission{Tab: models.TabAddCase, Level: models.LevelWrite})

	code, body = env.do(t, models.AdminRole, http.MethodPost, "/users", dto.CreateUserRequest{
		Username: "bad", Email: "bad@example.com", Password: "long-password", Role: "owner",
		Permissions: []models.TabPermission{{Tab: "reports", Level: models.LevelRead}},
		Dashboards:  []string{"finance"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	fields := decodeData[map[string]string](t, body)
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "permissions.reports")
	assert.Contains(t, fields, "dashboards.finance")
}

func TestUpdateUser_ChangesPermissionsImmediately(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.users[models.ViewerRole]

	code, _ := env.do(t, models.ViewerRole, http.MethodGet, "/cases/stats", nil)
	require.Equal(t, http.StatusOK, code)

	perms := []models.TabPermission{{Tab: models.TabAllCases, Level: models.LevelRead}}
	code, body := env.do(t, models.AdminRole, http.MethodPut, fmt.Sprintf("/users/%d", viewer.ID), dto.UpdateUserRequest{Permissions: &perms})
	require.Equal(t, http.StatusOK, code, body.Message)

	// the same token now lacks analytics
	code, _ = env.do(t, models.ViewerRole, http.MethodGet, "/cases/stats", nil)
	assert.Equal(t, http.StatusForbidden, code)

	role := "superuser"
	code, _ = env.do(t, models.AdminRole, http.MethodPut, fmt.Sprintf("/users/%d", viewer.ID), dto.UpdateUserRequest{Role: &role})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	email := env.users[models.AnalystRole].Email
	code, _ = env.do(t, models.AdminRole, http.MethodPut, fmt.Sprintf("/users/%d", viewer.ID), dto.UpdateUserRequest{Email: &email})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = env.do(t, models.AdminRole, http.MethodPut, "/users/999", dto.UpdateUserRequest{})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.users[models.AdminRole]
	viewer := env.users[models.ViewerRole]

	code, body := env.do(t, models.AdminRole, http.MethodDelete, fmt.Sprintf("/users/%d", admin.ID), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "you cannot delete your own account", body.Message)

	code, _ = env.do(t, models.AdminRole, http.MethodDelete, fmt.Sprintf("/users/%d", viewer.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, models.AdminRole, http.MethodDelete, fmt.Sprintf("/users/%d", viewer.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)

	// tokens of deleted users stop working
	code, _ = env.do(t, models.ViewerRole, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, models.AdminRole, http.MethodDelete, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUserDashboardsAndModules(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.users[models.ViewerRole]
	analyst := env.users[models.AnalystRole]

	code, body := env.do(t, models.ViewerRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards", viewer.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.DashboardAccess](t, body), 1)

	code, _ = env.do(t, models.ViewerRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards", analyst.ID), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = env.do(t, models.AdminRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards", analyst.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.DashboardAccess](t, body), 3)

	code, body = env.do(t, models.AnalystRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards/%s/modules", analyst.ID, models.DashboardCaseTracking), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]models.Module](t, body), 4)

	code, _ = env.do(t, models.AnalystRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards/%s/modules", analyst.ID, models.DashboardUserManagement), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, models.AnalystRole, http.MethodGet, fmt.Sprintf("/users/%d/dashboards/unknown/modules", analyst.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUsers_NonAdminCannotGrantAdmin(t *testing.T) {
	env := newTestEnv(t)
	manager, err := env.store.CreateUser(context.Background(), models.User{
		Username: "manager",
		Email:    "manager@example.com",
		Role:     models.AnalystRole,
		Permissions: []models.TabPermission{
			{Tab: models.TabUsers, Level: models.LevelWrite},
		},
		Dashboards: []string{models.DashboardUserManagement},
	})
	require.NoError(t, err)
	env.users["manager"] = manager

	admin := models.AdminRole
	code, _ := env.do(t, "manager", http.MethodPut, fmt.Sprintf("/users/%d", manager.ID), dto.UpdateUserRequest{Role: &admin})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, "manager", http.MethodPost, "/users", dto.CreateUserRequest{
		Username: "boss", Email: "boss@example.com", Password: "long-password", Role: models.AdminRole,
	})
	assert.Equal(t, http.StatusForbidden, code)

	email := "root@example.org"
	code, _ = env.do(t, "manager", http.MethodPut, fmt.Sprintf("/users/%d", env.users[models.AdminRole].ID), dto.UpdateUserRequest{Email: &email})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, "manager", http.MethodDelete, fmt.Sprintf("/users/%d", env.users[models.AdminRole].ID), nil)
	assert.Equal(t, http.StatusForbidden, code)

	stored, err := env.store.GetUser(context.Background(), manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalystRole, stored.Role)

	// Managing non-admins stays allowed.
	viewer := models.ViewerRole
	code, body := env.do(t, "manager", http.MethodPut, fmt.Sprintf("/users/%d", env.users[models.AnalystRole].ID), dto.UpdateUserRequest{Role: &viewer})
	require.Equal(t, http.StatusOK, code, body.Message)

	code, _ = env.do(t, models.AdminRole, http.MethodPut, fmt.Sprintf("/users/%d", manager.ID), dto.UpdateUserRequest{Role: &admin})
	assert.Equal(t, http.StatusOK, code)
}
