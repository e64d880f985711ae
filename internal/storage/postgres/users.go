package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

const userColumns = `u.id, u.username, u.email, u.role, u.password_hash, u.created_at`

// CreateUser inserts a user together with its permissions and dashboard grants.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var created models.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO users AS u (username, email, role, password_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + userColumns + `;`
		row := tx.QueryRow(ctx, query, user.Username, user.Email, user.Role, user.PasswordHash)
		var err error
		if created, err = scanUser(row); err != nil {
			return err
		}
		created.Permissions = user.Permissions
		created.Dashboards = user.Dashboards
		return writeGrants(ctx, tx, created)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return normalizeUser(created), nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1;`, id)
	return s.loadUser(ctx, row)
}

// FindByUsernameOrEmail fetches the first user matching the identifier as
// username or email, ignoring case like the unique indexes do.
func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u
		WHERE lower(u.username) = lower($1) OR lower(u.email) = lower($1)
		ORDER BY u.id LIMIT 1;`
	row := s.pool.QueryRow(ctx, query, identifier)
	return s.loadUser(ctx, row)
}

// ListUsers returns one page of users ordered by id and the total user count.
func (s *Store) ListUsers(ctx context.Context, p pagination.Params) ([]models.User, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id LIMIT $1 OFFSET $2;`, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan users: %w", err)
	}
	for i := range users {
		if err := s.attachGrants(ctx, &users[i]); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// UpdateUser rewrites the mutable fields and replaces all grants.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	var updated models.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const query = `
			UPDATE users AS u SET email = $2, role = $3, password_hash = $4
			WHERE u.id = $1
			RETURNING ` + userColumns + `;`
		row := tx.QueryRow(ctx, query, user.ID, user.Email, user.Role, user.PasswordHash)
		var err error
		if updated, err = scanUser(row); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1;`, user.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_dashboards WHERE user_id = $1;`, user.ID); err != nil {
			return err
		}
		updated.Permissions = user.Permissions
		updated.Dashboards = user.Dashboards
		return writeGrants(ctx, tx, updated)
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return models.User{}, storage.ErrNotFound
		case isUniqueViolation(err):
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return normalizeUser(updated), nil
}

// DeleteUser removes a user; grants cascade.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) loadUser(ctx context.Context, row pgx.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, err
	}
	if err := s.attachGrants(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) attachGrants(ctx context.Context, user *models.User) error {
	rows, err := s.pool.Query(ctx, `SELECT tab, level FROM user_permissions WHERE user_id = $1 ORDER BY tab;`, user.ID)
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.TabPermission])
	if err != nil {
		return fmt.Errorf("scan permissions: %w", err)
	}
	rows, err = s.pool.Query(ctx, `SELECT dashboard_key FROM user_dashboards WHERE user_id = $1 ORDER BY dashboard_key;`, user.ID)
	if err != nil {
		return fmt.Errorf("load dashboards: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scan dashboards: %w", err)
	}
	user.Permissions = perms
	user.Dashboards = keys
	*user = normalizeUser(*user)
	return nil
}

func writeGrants(ctx context.Context, tx pgx.Tx, user models.User) error {
	for _, p := range user.Permissions {
		const q = `INSERT INTO user_permissions (user_id, tab, level) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, tab) DO UPDATE SET level = EXCLUDED.level;`
		if _, err := tx.Exec(ctx, q, user.ID, p.Tab, p.Level); err != nil {
			return fmt.Errorf("write permission %s: %w", p.Tab, err)
		}
	}
	for _, key := range user.Dashboards {
		const q = `INSERT INTO user_dashboards (user_id, dashboard_key) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
		if _, err := tx.Exec(ctx, q, user.ID, key); err != nil {
			return fmt.Errorf("write dashboard grant %s: %w", key, err)
		}
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func normalizeUser(u models.User) models.User {
	if u.Permissions == nil {
		u.Permissions = []models.TabPermission{}
	}
	if u.Dashboards == nil {
		u.Dashboards = []string{}
	}
	return u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
