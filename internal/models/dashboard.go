package models

// Dashboard keys.
const (
	DashboardCaseTracking   = "case-tracking"
	DashboardSales          = "sales"
	DashboardInventory      = "inventory"
	DashboardUserManagement = "user-management"
)

// Dashboard is a top-level product area.
type Dashboard struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Module is a section of a dashboard gated by a single tab.
type Module struct {
	ID          int64  `json:"id"`
	DashboardID int64  `json:"dashboardId"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Tab         string `json:"tab"`
	Position    int    `json:"position"`
}

// DashboardAccess is one dashboard a user may enter together with the
// modules visible to them inside it.
type DashboardAccess struct {
	Dashboard Dashboard `json:"dashboard"`
	Modules   []Module  `json:"modules"`
}

// ValidDashboard reports whether key names a known dashboard.
func ValidDashboard(key string) bool {
	switch key {
	case DashboardCaseTracking, DashboardSales, DashboardInventory, DashboardUserManagement:
		return true
	}
	return false
}
