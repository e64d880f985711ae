package authz

import "github.com/hongminglow/casetrack-be/internal/models"

// CanAccessDashboard reports whether user may enter the dashboard with key.
func CanAccessDashboard(user models.User, key string) bool {
	if user.IsAdmin() {
		return true
	}
	for _, granted := range user.Dashboards {
		if granted == key {
			return true
		}
	}
	return false
}

// VisibleModules filters modules down to those whose tab user may view.
func VisibleModules(user models.User, modules []models.Module) []models.Module {
	out := make([]models.Module, 0, len(modules))
	for _, m := range modules {
		if CanAccessTab(user, m.Tab) {
			out = append(out, m)
		}
	}
	return out
}

// ResolveAccess builds the dashboard access list for user from the full
// catalogue. modules maps a dashboard ID to its modules. Dashboards the user
// is granted but can see no module of are still listed.
func ResolveAccess(user models.User, dashboards []models.Dashboard, modules map[int64][]models.Module) []models.DashboardAccess {
	out := make([]models.DashboardAccess, 0, len(dashboards))
	for _, d := range dashboards {
		if !CanAccessDashboard(user, d.Key) {
			continue
		}
		out = append(out, models.DashboardAccess{
			Dashboard: d,
			Modules:   VisibleModules(user, modules[d.ID]),
		})
	}
	return out
}

// ValidatePermissions checks every entry names a known tab and level.
func ValidatePermissions(perms []models.TabPermission) map[string]string {
	errs := map[string]string{}
	for _, p := range perms {
		if !models.ValidTab(p.Tab) {
			errs["permissions."+p.Tab] = "unknown tab"
			continue
		}
		if !models.ValidLevel(p.Level) {
			errs["permissions."+p.Tab] = "level must be none, read or write"
		}
	}
	return errs
}
