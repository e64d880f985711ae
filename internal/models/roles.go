package models

// Role names accepted by the API.
const (
	AdminRole   = "admin"
	AnalystRole = "analyst"
	ViewerRole  = "viewer"
)

// Tabs are application sections that carry their own permission level.
const (
	TabOverview  = "overview"
	TabAllCases  = "all-cases"
	TabAddCase   = "add-case"
	TabAnalytics = "analytics"
	TabSales     = "sales"
	TabInventory = "inventory"
	TabUsers     = "users"
)

// Permission levels, ordered from least to most privileged.
const (
	LevelNone  = "none"
	LevelRead  = "read"
	LevelWrite = "write"
)

// Tabs lists every known tab in display order.
var Tabs = []string{TabOverview, TabAllCases, TabAddCase, TabAnalytics, TabSales, TabInventory, TabUsers}

// TabPermission grants a permission level on one tab.
type TabPermission struct {
	Tab   string `json:"tab"`
	Level string `json:"level"`
}

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case AdminRole, AnalystRole, ViewerRole:
		return true
	}
	return false
}

// ValidLevel reports whether level is one of the known permission levels.
func ValidLevel(level string) bool {
	switch level {
	case LevelNone, LevelRead, LevelWrite:
		return true
	}
	return false
}

// ValidTab reports whether tab is a known tab.
func ValidTab(tab string) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}
