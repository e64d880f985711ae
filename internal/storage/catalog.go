package storage

import "github.com/hongminglow/casetrack-be/internal/models"

// Catalog is the fixed set of dashboards and their modules every store
// starts with.
func Catalog() ([]models.Dashboard, []models.Module) {
	dashboards := []models.Dashboard{
		{ID: 1, Key: models.DashboardCaseTracking, Name: "Case Tracking"},
		{ID: 2, Key: models.DashboardSales, Name: "Sales"},
		{ID: 3, Key: models.DashboardInventory, Name: "Inventory"},
		{ID: 4, Key: models.DashboardUserManagement, Name: "User Management"},
	}
	modules := []models.Module{
		{ID: 1, DashboardID: 1, Key: "overview", Name: "Overview", Tab: models.TabOverview, Position: 1},
		{ID: 2, DashboardID: 1, Key: "all-cases", Name: "All Cases", Tab: models.TabAllCases, Position: 2},
		{ID: 3, DashboardID: 1, Key: "add-case", Name: "Add Case", Tab: models.TabAddCase, Position: 3},
		{ID: 4, DashboardID: 1, Key: "analytics", Name: "Analytics", Tab: models.TabAnalytics, Position: 4},
		{ID: 5, DashboardID: 2, Key: "sales-overview", Name: "Sales Overview", Tab: models.TabSales, Position: 1},
		{ID: 6, DashboardID: 3, Key: "inventory-overview", Name: "Inventory Overview", Tab: models.TabInventory, Position: 1},
		{ID: 7, DashboardID: 4, Key: "users", Name: "Users", Tab: models.TabUsers, Position: 1},
	}
	return dashboards, modules
}
