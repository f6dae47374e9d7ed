package api

import (
	"fmt"
	"net/http"

	"github.com/okian/fundineed/internal/domain/model"
)

// AdminHandler serves the back-office endpoints. Every route except login
// sits behind the admin gate.
type AdminHandler struct {
	deps AdminDependencies
	dec  decoder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, dec decoder) *AdminHandler {
	return &AdminHandler{deps: deps, dec: dec}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/admin/login.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_login"
	var req loginRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	tok, err := h.deps.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// HandleSummary handles GET /api/admin/summary.
func (h *AdminHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Summary(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.admin_summary", err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// list serves a limited listing with the shared ?limit= handling.
func list[T any](w http.ResponseWriter, r *http.Request, op string, fetch func(limit int) ([]T, error)) {
	limit, err := limitParam(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	items, err := fetch(limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Items: items, Count: len(items)})
}

// HandleEligibilityChecks handles GET /api/admin/eligibility-checks.
func (h *AdminHandler) HandleEligibilityChecks(w http.ResponseWriter, r *http.Request) {
	list(w, r, "api.admin_eligibility_checks", func(limit int) ([]model.EligibilityCheck, error) {
		return h.deps.ListEligibilityChecks(r.Context(), limit)
	})
}

// HandleEMICalculations handles GET /api/admin/emi-calculations.
func (h *AdminHandler) HandleEMICalculations(w http.ResponseWriter, r *http.Request) {
	list(w, r, "api.admin_emi_calculations", func(limit int) ([]model.EMICalculation, error) {
		return h.deps.ListEMICalculations(r.Context(), limit)
	})
}

// HandleApplications handles GET /api/admin/applications.
func (h *AdminHandler) HandleApplications(w http.ResponseWriter, r *http.Request) {
	list(w, r, "api.admin_applications", func(limit int) ([]model.Application, error) {
		return h.deps.ListApplications(r.Context(), limit)
	})
}

// HandleEnquiries handles GET /api/admin/enquiries.
func (h *AdminHandler) HandleEnquiries(w http.ResponseWriter, r *http.Request) {
	list(w, r, "api.admin_enquiries", func(limit int) ([]model.Enquiry, error) {
		return h.deps.ListEnquiries(r.Context(), limit)
	})
}

// HandleApplication handles GET /api/admin/applications/{id}.
func (h *AdminHandler) HandleApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.deps.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.admin_application", err))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

// HandleApplicationStatus handles PATCH /api/admin/applications/{id}/status.
func (h *AdminHandler) HandleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_application_status"
	var req statusRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if !req.Status.Valid() {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown status %q", req.Status)))
		return
	}
	app, err := h.deps.UpdateApplicationStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleEvents handles GET /api/admin/events.
func (h *AdminHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Counters(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.admin_events", err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
