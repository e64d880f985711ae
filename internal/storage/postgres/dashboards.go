package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// ListDashboards returns every dashboard ordered by id.
func (s *Store) ListDashboards(ctx context.Context) ([]models.Dashboard, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, key, name FROM dashboards ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Dashboard, error) {
		var d models.Dashboard
		err := row.Scan(&d.ID, &d.Key, &d.Name)
		return d, err
	})
}

// GetDashboard fetches a dashboard by key.
func (s *Store) GetDashboard(ctx context.Context, key string) (models.Dashboard, error) {
	var d models.Dashboard
	err := s.pool.QueryRow(ctx, `SELECT id, key, name FROM dashboards WHERE key = $1;`, key).Scan(&d.ID, &d.Key, &d.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Dashboard{}, storage.ErrNotFound
		}
		return models.Dashboard{}, fmt.Errorf("get dashboard: %w", err)
	}
	return d, nil
}

// ListModules returns all modules grouped by dashboard id.
func (s *Store) ListModules(ctx context.Context) (map[int64][]models.Module, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, dashboard_id, key, name, tab, position FROM modules ORDER BY dashboard_id, position, id;`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	modules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Module, error) {
		var m models.Module
		err := row.Scan(&m.ID, &m.DashboardID, &m.Key, &m.Name, &m.Tab, &m.Position)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan modules: %w", err)
	}
	out := map[int64][]models.Module{}
	for _, m := range modules {
		out[m.DashboardID] = append(out[m.DashboardID], m)
	}
	return out, nil
}

// SeedVersion returns the last recorded fixture version, zero when none.
func (s *Store) SeedVersion(ctx context.Context) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT version FROM seed_state WHERE id = 1;`).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read seed version: %w", err)
	}
	return version, nil
}

// SetSeedVersion records version as the loaded fixture version.
func (s *Store) SetSeedVersion(ctx context.Context, version int) error {
	const q = `INSERT INTO seed_state (id, version) VALUES (1, $1) ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version;`
	if _, err := s.pool.Exec(ctx, q, version); err != nil {
		return fmt.Errorf("write seed version: %w", err)
	}
	return nil
}
