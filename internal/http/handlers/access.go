package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// resolveAccess loads the catalogue and returns the dashboards user may enter.
func resolveAccess(ctx context.Context, store storage.DashboardStore, user models.User) ([]models.DashboardAccess, error) {
	dashboards, err := store.ListDashboards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	modules, err := store.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return authz.ResolveAccess(user, dashboards, modules), nil
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
