package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/casetrack-be/internal/models"
)

func TestAllowed_AdminIgnoresOverrides(t *testing.T) {
	overrides := []models.TabPermission{{Tab: models.TabUsers, Level: models.LevelNone}}
	for _, tab := range models.Tabs {
		assert.True(t, Allowed(models.AdminRole, overrides, tab, View), tab)
		assert.True(t, Allowed(models.AdminRole, overrides, tab, Edit), tab)
		assert.Equal(t, models.LevelWrite, Level(models.AdminRole, overrides, tab), tab)
		assert.Equal(t, models.LevelWrite, Level(models.AdminRole, nil, tab), tab)
	}
}

func TestAllowed_Levels(t *testing.T) {
	perms := []models.TabPermission{
		{Tab: models.TabOverview, Level: models.LevelNone},
		{Tab: models.TabAllCases, Level: models.LevelRead},
		{Tab: models.TabAddCase, Level: models.LevelWrite},
	}
	tests := []struct {
		tab    string
		action Action
		want   bool
	}{
		{models.TabOverview, View, false},
		{models.TabOverview, Edit, false},
		{models.TabAllCases, View, true},
		{models.TabAllCases, Edit, false},
		{models.TabAddCase, View, true},
		{models.TabAddCase, Edit, true},
		{models.TabUsers, View, false},
		{models.TabUsers, Edit, false},
	}
	for _, role := range []string{models.AnalystRole, models.ViewerRole} {
		for _, tt := range tests {
			got := Allowed(role, perms, tt.tab, tt.action)
			if got != tt.want {
				t.Errorf("Allowed(%s, %s, %s) = %v, want %v", role, tt.tab, tt.action, got, tt.want)
			}
		}
	}
}

func TestLevel_MissingEntryIsNone(t *testing.T) {
	assert.Equal(t, models.LevelNone, Level(models.ViewerRole, nil, models.TabSales))
	assert.Equal(t, models.LevelRead, Level(models.ViewerRole, []models.TabPermission{{Tab: models.TabSales, Level: models.LevelRead}}, models.TabSales))
}

func TestLevel_LastEntryWins(t *testing.T) {
	perms := []models.TabPermission{
		{Tab: models.TabSales, Level: models.LevelWrite},
		{Tab: models.TabSales, Level: models.LevelRead},
	}
	assert.Equal(t, models.LevelRead, Level(models.AnalystRole, perms, models.TabSales))
	assert.False(t, Allowed(models.AnalystRole, perms, models.TabSales, Edit))
}

func TestCanAccessTab_User(t *testing.T) {
	viewer := models.User{Role: models.ViewerRole, Permissions: DefaultPermissions(models.ViewerRole)}
	assert.True(t, CanAccessTab(viewer, models.TabAllCases))
	assert.False(t, CanAccessTab(viewer, models.TabUsers))
	assert.Equal(t, models.LevelRead, TabPermission(viewer, models.TabAllCases))

	admin := models.User{Role: models.AdminRole}
	assert.True(t, CanAccessTab(admin, models.TabUsers))
	assert.Equal(t, models.LevelWrite, TabPermission(admin, models.TabUsers))
}

func TestResolveAccess(t *testing.T) {
	dashboards := []models.Dashboard{
		{ID: 1, Key: models.DashboardCaseTracking, Name: "Case Tracking"},
		{ID: 2, Key: models.DashboardSales, Name: "Sales"},
		{ID: 4, Key: models.DashboardUserManagement, Name: "User Management"},
	}
	modules := map[int64][]models.Module{
		1: {
			{ID: 1, DashboardID: 1, Key: "overview", Tab: models.TabOverview},
			{ID: 2, DashboardID: 1, Key: "add-case", Tab: models.TabAddCase},
		},
		2: {{ID: 3, DashboardID: 2, Key: "sales", Tab: models.TabSales}},
		4: {{ID: 4, DashboardID: 4, Key: "users", Tab: models.TabUsers}},
	}

	viewer := models.User{
		Role:        models.ViewerRole,
		Permissions: DefaultPermissions(models.ViewerRole),
		Dashboards:  DefaultDashboards(models.ViewerRole),
	}
	access := ResolveAccess(viewer, dashboards, modules)
	if assert.Len(t, access, 1) {
		assert.Equal(t, models.DashboardCaseTracking, access[0].Dashboard.Key)
		if assert.Len(t, access[0].Modules, 1) {
			assert.Equal(t, "overview", access[0].Modules[0].Key)
		}
	}

	admin := models.User{Role: models.AdminRole}
	access = ResolveAccess(admin, dashboards, modules)
	assert.Len(t, access, 3)
	assert.Len(t, access[0].Modules, 2)
}

func TestValidatePermissions(t *testing.T) {
	errs := ValidatePermissions([]models.TabPermission{
		{Tab: models.TabSales, Level: models.LevelRead},
		{Tab: "reports", Level: models.LevelRead},
		{Tab: models.TabUsers, Level: "admin"},
	})
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "permissions.reports")
	assert.Contains(t, errs, "permissions.users")
}
