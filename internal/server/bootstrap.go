package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/config"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// EnsureAdmin creates the configured bootstrap admin when no user with that
// username exists yet. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, store storage.UserStore, admin config.AdminBootstrap, logger zerolog.Logger) (bool, error) {
	if admin.Username == "" {
		return false, nil
	}
	_, err := store.FindByUsernameOrEmail(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("look up bootstrap admin: %w", err)
	}
	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	created, err := store.CreateUser(ctx, models.User{
		Username:     admin.Username,
		Email:        admin.Email,
		Role:         models.AdminRole,
		PasswordHash: hash,
	})
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("bootstrap admin created")
	return true, nil
}
