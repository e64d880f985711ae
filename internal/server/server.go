package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/config"
	"github.com/hongminglow/casetrack-be/internal/http/handlers"
	"github.com/hongminglow/casetrack-be/internal/middleware"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger zerolog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, logger, time.Now),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler builds the full middleware chain and route table.
func Handler(cfg config.Config, store storage.Store, logger zerolog.Logger, now func() time.Time) http.Handler {
	mux := http.NewServeMux()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authn := auth.NewAuthenticator(tokens, store, logger)

	handlers.NewHealthHandler(now(), store).Register(mux)
	handlers.NewAuthHandler(store, tokens, authn).Register(mux)
	handlers.NewUserHandler(store, authn).Register(mux)
	handlers.NewCaseHandler(store, authn, now).Register(mux)

	var h http.Handler = mux
	h = middleware.Recovery(logger, h)
	h = middleware.Logging(logger, h)
	h = middleware.RequestID(h)
	return middleware.CORS(cfg.CORSOrigins, h)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
