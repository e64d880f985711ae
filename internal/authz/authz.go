// Package authz resolves tab permissions and dashboard access. Every check in
// the API goes through this package; nothing is cached.
package authz

import "github.com/hongminglow/casetrack-be/internal/models"

// Action is what a caller wants to do on a tab.
type Action int

const (
	View Action = iota
	Edit
)

func (a Action) String() string {
	if a == Edit {
		return "edit"
	}
	return "view"
}

// Allowed reports whether a holder of role with the given overrides may
// perform action on tab. Admins are always allowed.
func Allowed(role string, overrides []models.TabPermission, tab string, action Action) bool {
	if role == models.AdminRole {
		return true
	}
	switch lookup(overrides, tab) {
	case models.LevelWrite:
		return true
	case models.LevelRead:
		return action == View
	default:
		return false
	}
}

// Level returns the effective permission level on tab.
func Level(role string, overrides []models.TabPermission, tab string) string {
	if role == models.AdminRole {
		return models.LevelWrite
	}
	if level := lookup(overrides, tab); level != "" {
		return level
	}
	return models.LevelNone
}

// CanAccessTab reports whether user may view tab.
func CanAccessTab(user models.User, tab string) bool {
	return Allowed(user.Role, user.Permissions, tab, View)
}

// TabPermission returns the user's effective level on tab.
func TabPermission(user models.User, tab string) string {
	return Level(user.Role, user.Permissions, tab)
}

// the last entry for a tab wins when a list carries duplicates.
func lookup(overrides []models.TabPermission, tab string) string {
	level := ""
	for _, p := range overrides {
		if p.Tab == tab {
			level = p.Level
		}
	}
	return level
}

// DefaultPermissions returns the grants applied to a new user of role when
// none are supplied. Admins need none.
func DefaultPermissions(role string) []models.TabPermission {
	switch role {
	case models.AnalystRole:
		return []models.TabPermission{
			{Tab: models.TabOverview, Level: models.LevelRead},
			{Tab: models.TabAllCases, Level: models.LevelWrite},
			{Tab: models.TabAddCase, Level: models.LevelWrite},
			{Tab: models.TabAnalytics, Level: models.LevelRead},
			{Tab: models.TabSales, Level: models.LevelRead},
			{Tab: models.TabInventory, Level: models.LevelRead},
		}
	case models.ViewerRole:
		return []models.TabPermission{
			{Tab: models.TabOverview, Level: models.LevelRead},
			{Tab: models.TabAllCases, Level: models.LevelRead},
			{Tab: models.TabAnalytics, Level: models.LevelRead},
		}
	}
	return nil
}

// DefaultDashboards returns the dashboards granted to a new user of role.
func DefaultDashboards(role string) []string {
	switch role {
	case models.AnalystRole:
		return []string{models.DashboardCaseTracking, models.DashboardSales, models.DashboardInventory}
	case models.ViewerRole:
		return []string{models.DashboardCaseTracking}
	}
	return nil
}
