// Package emi computes the equated monthly installment of a reducing-balance
// loan and its month by month schedule.
//
// All values are float64 at full precision. Rounding for display is left to
// the caller.
package emi

import (
	"errors"
	"math"
)

// MaxScheduleMonths caps the number of installments Schedule generates.
const MaxScheduleMonths = 600

// ErrOverflow is returned when terms produce a result float64 cannot hold,
// e.g. a principal near the float limit or a non-finite input.
var ErrOverflow = errors.New("emi: result is not a finite number")

// Kind classifies which branch Amortize took.
type Kind string

// Calculation kinds.
const (
	KindStandard   Kind = "standard"
	KindZeroRate   Kind = "zero_rate"
	KindDegenerate Kind = "degenerate"
)

// Terms are the loan inputs.
type Terms struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TenureMonths      int     `json:"tenure_months"`
}

// Result holds the installment and the aggregate totals.
type Result struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPayment   float64 `json:"total_payment"`
	TotalInterest  float64 `json:"total_interest"`
}

// Installment is one month of a schedule.
type Installment struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// Finite reports whether every field of r is a finite number.
func (r Result) Finite() bool {
	for _, v := range [...]float64{r.MonthlyPayment, r.TotalPayment, r.TotalInterest} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12 / 100
}

// Classify reports which branch Amortize takes for the given terms. A monthly
// rate too small to change 1+r is priced as zero rate, which is its limit.
func (t Terms) Classify() Kind {
	r := MonthlyRate(t.AnnualRatePercent)
	switch {
	case t.TenureMonths <= 0 || t.Principal <= 0 || t.AnnualRatePercent < 0:
		return KindDegenerate
	case r == 0 || 1+r == 1:
		return KindZeroRate
	default:
		return KindStandard
	}
}

// Amortize returns the fixed monthly payment and totals. Non-positive tenure,
// non-positive principal or a negative rate yield an all-zero Result.
func Amortize(principal, annualRatePercent float64, tenureMonths int) Result {
	t := Terms{Principal: principal, AnnualRatePercent: annualRatePercent, TenureMonths: tenureMonths}
	return t.Amortize()
}

// Amortize is the method form of the package function.
func (t Terms) Amortize() Result {
	n := float64(t.TenureMonths)
	switch t.Classify() {
	case KindDegenerate:
		return Result{}
	case KindZeroRate:
		monthly := t.Principal / n
		total := monthly * n
		return Result{MonthlyPayment: monthly, TotalPayment: total, TotalInterest: total - t.Principal}
	}

	r := MonthlyRate(t.AnnualRatePercent)
	growth := math.Pow(1+r, n)
	monthly := t.Principal * r * growth / (growth - 1)
	if math.IsInf(growth, 1) {
		// growth/(growth-1) tends to 1.
		monthly = t.Principal * r
	}
	total := monthly * n
	return Result{MonthlyPayment: monthly, TotalPayment: total, TotalInterest: total - t.Principal}
}

// Calculate is Amortize that fails with ErrOverflow instead of returning a
// non-finite Result.
func (t Terms) Calculate() (Result, error) {
	res := t.Amortize()
	if !res.Finite() {
		return Result{}, ErrOverflow
	}
	return res, nil
}

// Schedule returns the reducing-balance breakdown for the terms. The last
// installment pays off whatever balance remains, so the closing balance is 0.
// Degenerate terms, tenures above MaxScheduleMonths and terms whose result
// overflows return nil.
func Schedule(t Terms) []Installment {
	if t.Classify() == KindDegenerate || t.TenureMonths > MaxScheduleMonths {
		return nil
	}

	res, err := t.Calculate()
	if err != nil {
		return nil
	}
	r := MonthlyRate(t.AnnualRatePercent)
	balance := t.Principal
	out := make([]Installment, 0, t.TenureMonths)

	for month := 1; month <= t.TenureMonths; month++ {
		interest := balance * r
		principal := res.MonthlyPayment - interest
		payment := res.MonthlyPayment
		if month == t.TenureMonths {
			principal = balance
			payment = principal + interest
		}
		balance -= principal
		if month == t.TenureMonths {
			balance = 0
		}
		out = append(out, Installment{
			Month:     month,
			Payment:   payment,
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
	}
	return out
}
