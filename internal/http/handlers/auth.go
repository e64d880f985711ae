package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/http/respond"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// AuthStore is what the auth endpoints persist through.
type AuthStore interface {
	storage.UserStore
	storage.DashboardStore
}

// AuthHandler owns register/login/me endpoints.
type AuthHandler struct {
	store  AuthStore
	tokens *auth.TokenManager
	authn  *auth.Authenticator
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store AuthStore, tokens *auth.TokenManager, authn *auth.Authenticator) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, authn: authn}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.Handle("GET /me", h.authn.Require(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Role:         models.ViewerRole,
		Permissions:  authz.DefaultPermissions(models.ViewerRole),
		Dashboards:   authz.DefaultDashboards(models.ViewerRole),
		PasswordHash: passwordHash,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "user already exists")
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("create user")
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	logger := zerolog.Ctx(r.Context())
	user, err := h.store.FindByUsernameOrEmail(r.Context(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Info().Str("identifier", req.Identifier).Msg("login failed: unknown identifier")
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error().Err(err).Str("identifier", req.Identifier).Msg("login failed: fetch user")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	s, _ := auth.SessionFrom(r.Context())
	access, err := resolveAccess(r.Context(), h.store, s.User)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("resolve dashboard access")
		respond.Error(w, http.StatusInternalServerError, "failed to load dashboard access")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.MeResponse{User: s.User, Dashboards: access})
}

func validateCredentials(username, email, password string) error {
	if err := validateIdentity(username, email); err != nil {
		return err
	}
	if len(strings.TrimSpace(password)) < auth.MinPasswordLength || !utf8.ValidString(password) {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func validateIdentity(username, email string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
		return errors.New("username and email are required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return errors.New("email is not valid")
	}
	return nil
}
