package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/pkg/money"
)

// CalculatorHandler serves the eligibility and EMI calculators.
type CalculatorHandler struct {
	deps CalculatorDependencies
	dec  decoder
}

// NewCalculatorHandler creates a new calculator handler.
func NewCalculatorHandler(deps CalculatorDependencies, dec decoder) *CalculatorHandler {
	return &CalculatorHandler{deps: deps, dec: dec}
}

// eligibilityRequest accepts either a form bracket code or a raw income.
type eligibilityRequest struct {
	Age                int      `json:"age"`
	IncomeBracket      string   `json:"income_bracket"`
	AnnualFamilyIncome *float64 `json:"annual_family_income"`
	CourseType         string   `json:"course_type"`
	AcademicRecord     string   `json:"academic_record"`
}

func (r eligibilityRequest) profile() (eligibility.Profile, error) {
	p := eligibility.Profile{
		Age:            r.Age,
		CourseType:     r.CourseType,
		AcademicRecord: r.AcademicRecord,
	}
	switch {
	case r.AnnualFamilyIncome != nil:
		p.AnnualFamilyIncome = *r.AnnualFamilyIncome
	case r.IncomeBracket != "":
		p.AnnualFamilyIncome = eligibility.IncomeFromBracket(r.IncomeBracket)
	default:
		return p, errors.New("income_bracket or annual_family_income is required")
	}
	return p, nil
}

// HandleEligibility handles POST /api/eligibility.
func (h *CalculatorHandler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	const op = "api.eligibility"
	var req eligibilityRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := req.profile()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	check, err := h.deps.CheckEligibility(r.Context(), p)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type emiRequest struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TenureMonths      int     `json:"tenure_months"`
}

// emiDisplay is the result rounded to paise for presentation.
type emiDisplay struct {
	MonthlyPayment string `json:"monthly_payment"`
	TotalPayment   string `json:"total_payment"`
	TotalInterest  string `json:"total_interest"`
}

type emiResponse struct {
	ID      string     `json:"id"`
	Kind    emi.Kind   `json:"kind"`
	Terms   emi.Terms  `json:"terms"`
	Result  emi.Result `json:"result"`
	Display emiDisplay `json:"display"`
}

func displayOf(res emi.Result) emiDisplay {
	return emiDisplay{
		MonthlyPayment: money.Fixed(res.MonthlyPayment),
		TotalPayment:   money.Fixed(res.TotalPayment),
		TotalInterest:  money.Fixed(res.TotalInterest),
	}
}

// HandleEMI handles POST /api/emi. Degenerate inputs are not rejected; they
// yield a zero result with kind "degenerate".
func (h *CalculatorHandler) HandleEMI(w http.ResponseWriter, r *http.Request) {
	const op = "api.emi"
	var req emiRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	terms := emi.Terms{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TenureMonths:      req.TenureMonths,
	}
	calc, err := h.deps.CalculateEMI(r.Context(), terms)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, emiResponse{
		ID:      calc.ID,
		Kind:    terms.Classify(),
		Terms:   calc.Terms,
		Result:  calc.Result,
		Display: displayOf(calc.Result),
	})
}

type scheduleResponse struct {
	Terms        emi.Terms         `json:"terms"`
	Result       emi.Result        `json:"result"`
	Display      emiDisplay        `json:"display"`
	Installments []emi.Installment `json:"installments"`
}

// HandleSchedule handles GET /api/emi/schedule?principal=&rate=&tenure=.
func (h *CalculatorHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.emi_schedule"
	terms, err := scheduleTerms(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := h.deps.EMISchedule(r.Context(), terms)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []emi.Installment{}
	}
	res := terms.Amortize()
	writeJSON(w, http.StatusOK, scheduleResponse{
		Terms:        terms,
		Result:       res,
		Display:      displayOf(res),
		Installments: rows,
	})
}

func scheduleTerms(r *http.Request) (emi.Terms, error) {
	q := r.URL.Query()
	principal, err := strconv.ParseFloat(q.Get("principal"), 64)
	if err != nil {
		return emi.Terms{}, fmt.Errorf("principal: %w", err)
	}
	rate, err := strconv.ParseFloat(q.Get("rate"), 64)
	if err != nil {
		return emi.Terms{}, fmt.Errorf("rate: %w", err)
	}
	tenure, err := strconv.Atoi(q.Get("tenure"))
	if err != nil {
		return emi.Terms{}, fmt.Errorf("tenure: %w", err)
	}
	if tenure > emi.MaxScheduleMonths {
		return emi.Terms{}, fmt.Errorf("tenure must be at most %d months", emi.MaxScheduleMonths)
	}
	return emi.Terms{Principal: principal, AnnualRatePercent: rate, TenureMonths: tenure}, nil
}
