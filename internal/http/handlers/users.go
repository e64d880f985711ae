package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/http/respond"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// UserStore is what the user administration endpoints persist through.
type UserStore interface {
	storage.UserStore
	storage.DashboardStore
}

// UserHandler serves user administration and per-user dashboard access.
type UserHandler struct {
	store UserStore
	authn *auth.Authenticator
}

// NewUserHandler constructs the handler.
func NewUserHandler(store UserStore, authn *auth.Authenticator) *UserHandler {
	return &UserHandler{store: store, authn: authn}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux) {
	view := func(fn http.HandlerFunc) http.Handler {
		return h.authn.Require(auth.RequireTab(models.TabUsers, authz.View, fn))
	}
	edit := func(fn http.HandlerFunc) http.Handler {
		return h.authn.Require(auth.RequireTab(models.TabUsers, authz.Edit, fn))
	}
	mux.Handle("GET /users", view(h.handleList))
	mux.Handle("POST /users", edit(h.handleCreate))
	mux.Handle("PUT /users/{id}", edit(h.handleUpdate))
	mux.Handle("DELETE /users/{id}", edit(h.handleDelete))
	// self or user viewers; checked inside
	mux.Handle("GET /users/{id}/dashboards", h.authn.Require(http.HandlerFunc(h.handleDashboards)))
	mux.Handle("GET /users/{id}/dashboards/{dashboard}/modules", h.authn.Require(http.HandlerFunc(h.handleModules)))
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromQuery(r.URL.Query())
	users, total, err := h.store.ListUsers(r.Context(), p)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list users")
		respond.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", pagination.NewPage(users, total, p))
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.ViewerRole
	}
	if fields := validateGrants(role, req.Permissions, req.Dashboards); len(fields) > 0 {
		respond.Invalid(w, "invalid user", fields)
		return
	}
	if !callerMayManage(r, models.User{}, role) {
		respond.Error(w, http.StatusForbidden, errAdminOnly)
		return
	}
	perms := req.Permissions
	if perms == nil {
		perms = authz.DefaultPermissions(role)
	}
	dashboards := req.Dashboards
	if dashboards == nil {
		dashboards = authz.DefaultDashboards(role)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	created, err := h.store.CreateUser(r.Context(), models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Role:         role,
		Permissions:  perms,
		Dashboards:   dashboards,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("create user")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "load user")
		return
	}
	newRole := user.Role
	if req.Role != nil {
		newRole = strings.ToLower(strings.TrimSpace(*req.Role))
	}
	if !callerMayManage(r, user, newRole) {
		respond.Error(w, http.StatusForbidden, errAdminOnly)
		return
	}

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Password != nil {
		if len(strings.TrimSpace(*req.Password)) < auth.MinPasswordLength {
			respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		if user.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
	}
	user.Role = newRole
	if req.Permissions != nil {
		user.Permissions = *req.Permissions
	}
	if req.Dashboards != nil {
		user.Dashboards = *req.Dashboards
	}
	if err := validateIdentity(user.Username, user.Email); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateGrants(user.Role, user.Permissions, user.Dashboards); len(fields) > 0 {
		respond.Invalid(w, "invalid user", fields)
		return
	}

	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		h.storeError(w, r, err, "update user")
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, _ := auth.SessionFrom(r.Context())
	if s.User.ID == id {
		respond.Error(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}
	target, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "load user")
		return
	}
	if !callerMayManage(r, target, target.Role) {
		respond.Error(w, http.StatusForbidden, errAdminOnly)
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		h.storeError(w, r, err, "delete user")
		return
	}
	respond.JSON(w, http.StatusOK, "user deleted", nil)
}

func (h *UserHandler) handleDashboards(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	access, err := resolveAccess(r.Context(), h.store, target)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("resolve dashboard access")
		respond.Error(w, http.StatusInternalServerError, "failed to load dashboard access")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", access)
}

func (h *UserHandler) handleModules(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.store.GetDashboard(r.Context(), r.PathValue("dashboard"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "dashboard not found")
			return
		}
		h.storeError(w, r, err, "load dashboard")
		return
	}
	if !authz.CanAccessDashboard(target, dashboard.Key) {
		respond.Error(w, http.StatusForbidden, "no access to dashboard "+dashboard.Key)
		return
	}
	modules, err := h.store.ListModules(r.Context())
	if err != nil {
		h.storeError(w, r, err, "list modules")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", authz.VisibleModules(target, modules[dashboard.ID]))
}

// targetUser loads the {id} user when the caller is that user or may view
// the users tab.
func (h *UserHandler) targetUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return models.User{}, false
	}
	s, _ := auth.SessionFrom(r.Context())
	if s.User.ID == id {
		return s.User, true
	}
	if !s.Can(models.TabUsers, authz.View) {
		respond.Error(w, http.StatusForbidden, "requires view access to users")
		return models.User{}, false
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "load user")
		return models.User{}, false
	}
	return user, true
}

func (h *UserHandler) storeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "email already in use")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(op)
		respond.Error(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func validateGrants(role string, perms []models.TabPermission, dashboards []string) map[string]string {
	fields := authz.ValidatePermissions(perms)
	if !models.ValidRole(role) {
		fields["role"] = "role must be admin, analyst or viewer"
	}
	for _, key := range dashboards {
		if !models.ValidDashboard(key) {
			fields["dashboards."+key] = "unknown dashboard"
		}
	}
	return fields
}

const errAdminOnly = "only admins can grant the admin role or manage admin accounts"

// callerMayManage reports whether the session user may act on target and
// leave it with role. Holding edit on the users tab is not enough to create,
// promote, modify or delete an admin.
func callerMayManage(r *http.Request, target models.User, role string) bool {
	s, _ := auth.SessionFrom(r.Context())
	if s.User.IsAdmin() {
		return true
	}
	return !target.IsAdmin() && role != models.AdminRole
}
