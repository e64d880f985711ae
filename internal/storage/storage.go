package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/pagination"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations for users, their tab
// permissions and dashboard grants.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	ListUsers(ctx context.Context, p pagination.Params) ([]models.User, int, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CaseQuery selects, orders and optionally pages cases. A nil Page returns
// every match.
type CaseQuery struct {
	Filter cases.Filter
	Order  cases.Order
	Page   *pagination.Params
}

// CaseStore captures persistence operations for cases. Soft-deleted cases
// are never returned.
type CaseStore interface {
	CreateCase(ctx context.Context, c models.Case) (models.Case, error)
	GetCase(ctx context.Context, caseNumber string) (models.Case, error)
	ListCases(ctx context.Context, q CaseQuery) ([]models.Case, int, error)
	UpdateCase(ctx context.Context, c models.Case) (models.Case, error)
	DeleteCase(ctx context.Context, caseNumber string) error
	// UpsertCases writes cases keyed by case number, reviving soft-deleted ones.
	UpsertCases(ctx context.Context, list []models.Case) error
}

// DashboardStore exposes the dashboard and module catalogue.
type DashboardStore interface {
	ListDashboards(ctx context.Context) ([]models.Dashboard, error)
	GetDashboard(ctx context.Context, key string) (models.Dashboard, error)
	ListModules(ctx context.Context) (map[int64][]models.Module, error)
}

// SeedStore records which fixture schema version was last loaded.
type SeedStore interface {
	SeedVersion(ctx context.Context) (int, error)
	SetSeedVersion(ctx context.Context, version int) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	CaseStore
	DashboardStore
	SeedStore
	Ping(ctx context.Context) error
	Close()
}
