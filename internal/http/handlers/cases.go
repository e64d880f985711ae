package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/auth"
	"github.com/hongminglow/casetrack-be/internal/authz"
	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/http/respond"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/pagination"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

// CaseHandler serves case CRUD, listing and dashboard statistics.
type CaseHandler struct {
	store storage.CaseStore
	authn *auth.Authenticator
	now   func() time.Time
}

// NewCaseHandler constructs the handler. now supplies the clock survival
// figures are derived against.
func NewCaseHandler(store storage.CaseStore, authn *auth.Authenticator, now func() time.Time) *CaseHandler {
	if now == nil {
		now = time.Now
	}
	return &CaseHandler{store: store, authn: authn, now: now}
}

// Register attaches case routes to the mux.
func (h *CaseHandler) Register(mux *http.ServeMux) {
	guard := func(tab string, action authz.Action, fn http.HandlerFunc) http.Handler {
		return h.authn.Require(auth.RequireTab(tab, action, fn))
	}
	mux.Handle("GET /cases", guard(models.TabAllCases, authz.View, h.handleList))
	mux.Handle("GET /cases/stats", guard(models.TabAnalytics, authz.View, h.handleStats))
	mux.Handle("GET /cases/{caseNumber}", guard(models.TabAllCases, authz.View, h.handleGet))
	mux.Handle("POST /cases", guard(models.TabAddCase, authz.Edit, h.handleCreate))
	mux.Handle("PUT /cases/{caseNumber}", guard(models.TabAllCases, authz.Edit, h.handleUpdate))
	mux.Handle("DELETE /cases/{caseNumber}", guard(models.TabAllCases, authz.Edit, h.handleDelete))
}

func (h *CaseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := cases.FilterFromQuery(q)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	p := pagination.FromQuery(q)
	list, total, err := h.store.ListCases(r.Context(), storage.CaseQuery{
		Filter: filter,
		Order:  cases.OrderFromQuery(q),
		Page:   &p,
	})
	if err != nil {
		h.storeError(w, r, err, "list cases")
		return
	}
	cases.Derive(list, h.now())
	respond.JSON(w, http.StatusOK, "ok", pagination.NewPage(list, total, p))
}

func (h *CaseHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, err := cases.FilterFromQuery(r.URL.Query())
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	list, _, err := h.store.ListCases(r.Context(), storage.CaseQuery{Filter: filter})
	if err != nil {
		h.storeError(w, r, err, "load cases")
		return
	}
	cases.Derive(list, h.now())
	respond.JSON(w, http.StatusOK, "ok", cases.Summarize(list))
}

func (h *CaseHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCase(r.Context(), r.PathValue("caseNumber"))
	if err != nil {
		h.storeError(w, r, err, "load case")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", cases.WithSurvival(c, h.now()))
}

func (h *CaseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	c, ok := h.validate(w, req)
	if !ok {
		return
	}
	created, err := h.store.CreateCase(r.Context(), c)
	if err != nil {
		h.storeError(w, r, err, "create case")
		return
	}
	s, _ := auth.SessionFrom(r.Context())
	zerolog.Ctx(r.Context()).Info().Str("case_number", created.CaseNumber).Int64("user_id", s.User.ID).Msg("case created")
	respond.JSON(w, http.StatusCreated, "case created", cases.WithSurvival(created, h.now()))
}

func (h *CaseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("caseNumber")
	var req dto.CaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.CaseNumber) == "" {
		req.CaseNumber = number
	} else if strings.TrimSpace(req.CaseNumber) != number {
		respond.Error(w, http.StatusBadRequest, "case number cannot be changed")
		return
	}
	c, ok := h.validate(w, req)
	if !ok {
		return
	}
	updated, err := h.store.UpdateCase(r.Context(), c)
	if err != nil {
		h.storeError(w, r, err, "update case")
		return
	}
	respond.JSON(w, http.StatusOK, "case updated", cases.WithSurvival(updated, h.now()))
}

func (h *CaseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("caseNumber")
	if err := h.store.DeleteCase(r.Context(), number); err != nil {
		h.storeError(w, r, err, "delete case")
		return
	}
	s, _ := auth.SessionFrom(r.Context())
	zerolog.Ctx(r.Context()).Info().Str("case_number", number).Int64("user_id", s.User.ID).Msg("case deleted")
	respond.JSON(w, http.StatusOK, "case deleted", nil)
}

func (h *CaseHandler) validate(w http.ResponseWriter, req dto.CaseRequest) (models.Case, bool) {
	c, err := cases.FromRequest(req, h.now())
	if err != nil {
		var verr cases.ValidationError
		if errors.As(err, &verr) {
			respond.Invalid(w, "invalid case", verr)
			return models.Case{}, false
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.Case{}, false
	}
	return c, true
}

func (h *CaseHandler) storeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "case not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "case number already exists")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(op)
		respond.Error(w, http.StatusInternalServerError, "failed to "+op)
	}
}
