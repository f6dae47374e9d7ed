package api

import (
	"net/http"

	"github.com/okian/fundineed/internal/domain/model"
)

// FormHandler accepts the application and contact forms.
type FormHandler struct {
	deps FormDependencies
	dec  decoder
}

// NewFormHandler creates a new form handler.
func NewFormHandler(deps FormDependencies, dec decoder) *FormHandler {
	return &FormHandler{deps: deps, dec: dec}
}

type applicationRequest struct {
	Personal    model.Personal    `json:"personal"`
	Course      model.Course      `json:"course"`
	Loan        model.Loan        `json:"loan"`
	CoApplicant model.CoApplicant `json:"co_applicant"`
}

// HandleApplication handles POST /api/applications. Invalid submissions
// answer 422 with every failing field.
func (h *FormHandler) HandleApplication(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_application"
	var req applicationRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	app, err := h.deps.SubmitApplication(r.Context(), model.Application{
		Personal:    req.Personal,
		Course:      req.Course,
		Loan:        req.Loan,
		CoApplicant: req.CoApplicant,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

type enquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// HandleEnquiry handles POST /api/enquiries.
func (h *FormHandler) HandleEnquiry(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_enquiry"
	var req enquiryRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.SubmitEnquiry(r.Context(), model.Enquiry{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
