// Package api declares the JSON endpoints of the site and the back-office and
// registers them on a mux.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/internal/auth"
	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/dedupe"
	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/internal/domain/model"
	"github.com/okian/fundineed/pkg/logger"
)

// CalculatorDependencies runs the calculators and records each use.
type CalculatorDependencies interface {
	CheckEligibility(ctx context.Context, p eligibility.Profile) (model.EligibilityCheck, error)
	CalculateEMI(ctx context.Context, t emi.Terms) (model.EMICalculation, error)
	EMISchedule(ctx context.Context, t emi.Terms) ([]emi.Installment, error)
}

// FormDependencies accepts the site's forms.
type FormDependencies interface {
	SubmitApplication(ctx context.Context, a model.Application) (model.Application, error)
	SubmitEnquiry(ctx context.Context, e model.Enquiry) (model.Enquiry, error)
}

// TrackingDependencies dedupes and enqueues visitor events.
type TrackingDependencies interface {
	dedupe.Deduper
	// Enqueue pushes an event for async processing. It returns an error on
	// backpressure.
	Enqueue(ctx context.Context, e analytics.Event) error
}

// AdminDependencies serves the back-office.
type AdminDependencies interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Summary(ctx context.Context) (Summary, error)
	ListEligibilityChecks(ctx context.Context, limit int) ([]model.EligibilityCheck, error)
	ListEMICalculations(ctx context.Context, limit int) ([]model.EMICalculation, error)
	ListApplications(ctx context.Context, limit int) ([]model.Application, error)
	GetApplication(ctx context.Context, id string) (model.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status model.Status) (model.Application, error)
	ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error)
	Counters(ctx context.Context) (analytics.Counters, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CalculatorDependencies
	FormDependencies
	TrackingDependencies
	AdminDependencies
	Ready(ctx context.Context) error
}

// Summary is the back-office landing view.
type Summary struct {
	Totals   repository.Totals  `json:"totals"`
	Counters analytics.Counters `json:"counters"`
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	calculatorHandler *CalculatorHandler
	formHandler       *FormHandler
	trackingHandler   *TrackingHandler
	adminHandler      *AdminHandler
	dashboardHandler  *dashboardHandler

	authenticator *auth.Authenticator
	maxBodyBytes  int64
	loginLimit    limitConfig
	formLimit     limitConfig
	loginLimiter  *RateLimiter
	formLimiter   *RateLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, authenticator *auth.Authenticator, opts ...Option) *Server {
	s := &Server{
		authenticator: authenticator,
		maxBodyBytes:  defaultMaxBodyBytes,
		loginLimit:    limitConfig{capacity: defaultLoginCapacity, window: defaultLoginWindow},
		formLimit:     limitConfig{capacity: defaultFormCapacity, window: defaultFormWindow},
	}
	for _, opt := range opts {
		opt(s)
	}

	dec := decoder{maxBytes: s.maxBodyBytes}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.calculatorHandler = NewCalculatorHandler(deps, dec)
	s.formHandler = NewFormHandler(deps, dec)
	s.trackingHandler = NewTrackingHandler(deps, dec)
	s.adminHandler = NewAdminHandler(deps, dec)
	s.dashboardHandler = newDashboardHandler()
	s.loginLimiter = NewRateLimiter(s.loginLimit.capacity, s.loginLimit.window)
	s.formLimiter = NewRateLimiter(s.formLimit.capacity, s.formLimit.window)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	m := MetricsMiddleware
	forms := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return m(RateLimitMiddleware(s.formLimiter, endpoint, h), endpoint)
	}
	admin := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return m(auth.RequireAdmin(s.authenticator)(h).ServeHTTP, endpoint)
	}

	mux.HandleFunc("GET /healthz", m(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /readyz", m(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("GET /stats", m(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)

	mux.HandleFunc("POST /api/eligibility", m(s.calculatorHandler.HandleEligibility, "eligibility"))
	mux.HandleFunc("POST /api/emi", m(s.calculatorHandler.HandleEMI, "emi"))
	mux.HandleFunc("GET /api/emi/schedule", m(s.calculatorHandler.HandleSchedule, "emi_schedule"))
	mux.HandleFunc("POST /api/applications", forms(s.formHandler.HandleApplication, "applications"))
	mux.HandleFunc("POST /api/enquiries", forms(s.formHandler.HandleEnquiry, "enquiries"))
	mux.HandleFunc("POST /api/track", m(s.trackingHandler.HandleTrack, "track"))

	mux.HandleFunc("POST /api/admin/login",
		m(RateLimitMiddleware(s.loginLimiter, "admin_login", s.adminHandler.HandleLogin), "admin_login"))
	mux.HandleFunc("GET /api/admin/summary", admin(s.adminHandler.HandleSummary, "admin_summary"))
	mux.HandleFunc("GET /api/admin/eligibility-checks", admin(s.adminHandler.HandleEligibilityChecks, "admin_eligibility_checks"))
	mux.HandleFunc("GET /api/admin/emi-calculations", admin(s.adminHandler.HandleEMICalculations, "admin_emi_calculations"))
	mux.HandleFunc("GET /api/admin/applications", admin(s.adminHandler.HandleApplications, "admin_applications"))
	mux.HandleFunc("GET /api/admin/applications/{id}", admin(s.adminHandler.HandleApplication, "admin_application"))
	mux.HandleFunc("PATCH /api/admin/applications/{id}/status", admin(s.adminHandler.HandleApplicationStatus, "admin_application_status"))
	mux.HandleFunc("GET /api/admin/enquiries", admin(s.adminHandler.HandleEnquiries, "admin_enquiries"))
	mux.HandleFunc("GET /api/admin/events", admin(s.adminHandler.HandleEvents, "admin_events"))
}

type errorResponse struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  []model.FieldError `json:"fields,omitempty"`
}

// encodeFailureBody is sent when a response value cannot be marshaled.
const encodeFailureBody = `{"code":"internal_error","message":"response could not be encoded"}`

// writeJSON marshals v before writing the header, so a value that cannot be
// encoded is logged and answered with a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Named("api").Error(context.Background(), "failed to encode response",
			logger.Int("status", status), logger.Error(err))
		status = http.StatusInternalServerError
		body = []byte(encodeFailureBody)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Named("api").Debug(context.Background(), "failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			resp.Fields = ve.Fields
		}
	}
	writeJSON(w, status, resp)
}

// writeFailure maps err to a status and code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err)
	case errors.Is(err, emi.ErrOverflow):
		writeError(w, http.StatusUnprocessableEntity, "overflow", err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

type decoder struct {
	maxBytes int64
}

// decode reads a single JSON object into v, rejecting unknown fields.
func (d decoder) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, d.maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// limitParam reads ?limit=, defaulting when absent.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer: %w", err)
	}
	return n, nil
}
