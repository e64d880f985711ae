package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/casetrack-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users, cases and the
// dashboard catalogue.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks a pooled connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS dashboards (
			id BIGINT PRIMARY KEY,
			key TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS modules (
			id BIGINT PRIMARY KEY,
			dashboard_id BIGINT NOT NULL REFERENCES dashboards(id),
			key TEXT NOT NULL,
			name TEXT NOT NULL,
			tab TEXT NOT NULL,
			position INT NOT NULL DEFAULT 0,
			UNIQUE (dashboard_id, key)
		);`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			tab TEXT NOT NULL,
			level TEXT NOT NULL,
			PRIMARY KEY (user_id, tab)
		);`,
		`CREATE TABLE IF NOT EXISTS user_dashboards (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			dashboard_key TEXT NOT NULL REFERENCES dashboards(key),
			PRIMARY KEY (user_id, dashboard_key)
		);`,
		`CREATE TABLE IF NOT EXISTS cases (
			case_number TEXT PRIMARY KEY,
			nerves_treated INT NOT NULL DEFAULT 0,
			op_date DATE NOT NULL,
			case_type TEXT NOT NULL,
			clinical_system TEXT NOT NULL DEFAULT '',
			site TEXT NOT NULL DEFAULT '',
			surgeon TEXT NOT NULL,
			user_status TEXT NOT NULL,
			specialty TEXT NOT NULL,
			extremity TEXT NOT NULL,
			surgery_description TEXT NOT NULL DEFAULT '',
			neuroma_case BOOLEAN NOT NULL DEFAULT FALSE,
			case_study BOOLEAN NOT NULL DEFAULT FALSE,
			region TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (lower(username));`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));`,
		`CREATE INDEX IF NOT EXISTS cases_op_date_idx ON cases (op_date) WHERE deleted_at IS NULL;`,
		`CREATE TABLE IF NOT EXISTS seed_state (
			id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			version INT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return s.seedCatalog(ctx)
}

func (s *Store) seedCatalog(ctx context.Context) error {
	dashboards, modules := storage.Catalog()
	for _, d := range dashboards {
		const q = `INSERT INTO dashboards (id, key, name) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET key = EXCLUDED.key, name = EXCLUDED.name;`
		if _, err := s.pool.Exec(ctx, q, d.ID, d.Key, d.Name); err != nil {
			return fmt.Errorf("seed dashboards: %w", err)
		}
	}
	for _, m := range modules {
		const q = `INSERT INTO modules (id, dashboard_id, key, name, tab, position) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET dashboard_id = EXCLUDED.dashboard_id, key = EXCLUDED.key,
			name = EXCLUDED.name, tab = EXCLUDED.tab, position = EXCLUDED.position;`
		if _, err := s.pool.Exec(ctx, q, m.ID, m.DashboardID, m.Key, m.Name, m.Tab, m.Position); err != nil {
			return fmt.Errorf("seed modules: %w", err)
		}
	}
	return nil
}
