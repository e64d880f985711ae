package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// TestStoreIntegration exercises the store against a live database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true to run this integration test")
	}
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		_ = godotenv.Overload(path)
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	suffix := time.Now().UnixNano()
	user, err := store.CreateUser(ctx, models.User{
		Username:     fmt.Sprintf("pgtest_%d", suffix),
		Email:        fmt.Sprintf("pgtest_%d@example.com", suffix),
		Role:         models.ViewerRole,
		PasswordHash: "x",
		Permissions:  []models.TabPermission{{Tab: models.TabAllCases, Level: models.LevelRead}},
		Dashboards:   []string{models.DashboardCaseTracking},
	})
	require.NoError(t, err)
	defer store.DeleteUser(ctx, user.ID)

	_, err = store.CreateUser(ctx, models.User{
		Username:     strings.ToUpper(user.Username),
		Email:        fmt.Sprintf("other_%d@example.com", suffix),
		Role:         models.ViewerRole,
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := store.FindByUsernameOrEmail(ctx, strings.ToUpper(user.Email))
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	loaded, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Permissions, loaded.Permissions)
	assert.Equal(t, []string{models.DashboardCaseTracking}, loaded.Dashboards)

	_, total, err := store.ListUsers(ctx, pagination.Params{Limit: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 1)

	number := fmt.Sprintf("PG-%d", suffix)
	c := models.Case{
		CaseNumber: number, NervesTreated: 2, OpDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		CaseType: models.CaseTypePrimary, Surgeon: "Dr. Integration", UserStatus: models.StatusIn,
		Specialty: "Orthopedics", Extremity: models.ExtremityUpper, Region: "Test",
	}
	_, err = store.CreateCase(ctx, c)
	require.NoError(t, err)
	_, err = store.CreateCase(ctx, c)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	list, n, err := store.ListCases(ctx, storage.CaseQuery{Filter: cases.Filter{Search: number}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, number, list[0].CaseNumber)

	require.NoError(t, store.DeleteCase(ctx, number))
	_, err = store.GetCase(ctx, number)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
