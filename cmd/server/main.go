package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hongminglow/casetrack-be/internal/config"
	"github.com/hongminglow/casetrack-be/internal/fixture"
	"github.com/hongminglow/casetrack-be/internal/logging"
	"github.com/hongminglow/casetrack-be/internal/server"
	"github.com/hongminglow/casetrack-be/internal/storage"
	"github.com/hongminglow/casetrack-be/internal/storage/memory"
	postgres "github.com/hongminglow/casetrack-be/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDev())
	log.Logger = logger
	if envErr != nil {
		logger.Info().Msg("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("init storage")
	}
	defer store.Close()

	if err := prepare(ctx, cfg, store, logger); err != nil {
		logger.Fatal().Err(err).Msg("prepare data")
	}

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("driver", cfg.StorageDriver).Msg("casetrack backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.New(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func prepare(ctx context.Context, cfg config.Config, store storage.Store, logger zerolog.Logger) error {
	if _, err := server.EnsureAdmin(ctx, store, cfg.Admin, logger); err != nil {
		return err
	}
	if !cfg.SeedFixture {
		return nil
	}
	version, list, err := fixture.Bundled(time.Now())
	if err != nil {
		return err
	}
	_, err = fixture.Seed(ctx, store, version, list, logger)
	return err
}
