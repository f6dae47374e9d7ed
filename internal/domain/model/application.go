// Package model contains the records the site collects and the back-office
// reads.
package model

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/okian/fundineed/internal/domain/eligibility"
)

// Loan limits accepted by the application form.
const (
	MinLoanAmount   = 50000
	MaxLoanAmount   = 15000000
	MinTenureMonths = 12
	MaxTenureMonths = 180
)

// Date layouts used by the form.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var phonePattern = regexp.MustCompile(`^(\+91[ -]?)?[6-9][0-9]{9}$`)

// Status is the review state of an application.
type Status string

// Application statuses.
const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reviewer may move s to next.
// Approved and rejected are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Relations accepted for a co-applicant.
var relations = map[string]struct{}{
	"father": {}, "mother": {}, "spouse": {}, "sibling": {}, "guardian": {}, "other": {},
}

// Personal is the first form step.
type Personal struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	City        string `json:"city"`
}

// Course is the second form step.
type Course struct {
	CourseType     string `json:"course_type"`
	University     string `json:"university"`
	Country        string `json:"country"`
	CourseStart    string `json:"course_start"`
	AcademicRecord string `json:"academic_record"`
}

// Loan is the third form step.
type Loan struct {
	Amount       float64 `json:"amount"`
	TenureMonths int     `json:"tenure_months"`
	Collateral   bool    `json:"collateral"`
}

// CoApplicant is the last form step.
type CoApplicant struct {
	Name         string  `json:"name"`
	Relation     string  `json:"relation"`
	AnnualIncome float64 `json:"annual_income"`
}

// Application is a submitted multi-step loan application.
type Application struct {
	ID          string             `json:"id"`
	Status      Status             `json:"status"`
	Personal    Personal           `json:"personal"`
	Course      Course             `json:"course"`
	Loan        Loan               `json:"loan"`
	CoApplicant CoApplicant        `json:"co_applicant"`
	Eligibility eligibility.Result `json:"eligibility"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Validate checks every step and returns a *ValidationError listing each
// invalid field, or nil.
func (a Application) Validate(now time.Time) error {
	v := &ValidationError{}

	p := a.Personal
	if strings.TrimSpace(p.FullName) == "" {
		v.add("personal.full_name", "is required")
	}
	if !validEmail(p.Email) {
		v.add("personal.email", "must be a valid email address")
	}
	if !phonePattern.MatchString(strings.TrimSpace(p.Phone)) {
		v.add("personal.phone", "must be a 10 digit Indian mobile number")
	}
	if dob, err := time.Parse(DateLayout, p.DateOfBirth); err != nil {
		v.add("personal.date_of_birth", "must be YYYY-MM-DD")
	} else if !dob.Before(now) {
		v.add("personal.date_of_birth", "must be in the past")
	}
	if strings.TrimSpace(p.City) == "" {
		v.add("personal.city", "is required")
	}

	c := a.Course
	if strings.TrimSpace(c.CourseType) == "" {
		v.add("course.course_type", "is required")
	}
	if strings.TrimSpace(c.University) == "" {
		v.add("course.university", "is required")
	}
	if strings.TrimSpace(c.Country) == "" {
		v.add("course.country", "is required")
	}
	if _, err := time.Parse(MonthLayout, c.CourseStart); err != nil {
		v.add("course.course_start", "must be YYYY-MM")
	}
	if strings.TrimSpace(c.AcademicRecord) == "" {
		v.add("course.academic_record", "is required")
	}

	l := a.Loan
	if l.Amount < MinLoanAmount || l.Amount > MaxLoanAmount {
		v.add("loan.amount", "must be between 50000 and 15000000")
	}
	if l.TenureMonths < MinTenureMonths || l.TenureMonths > MaxTenureMonths {
		v.add("loan.tenure_months", "must be between 12 and 180")
	}

	co := a.CoApplicant
	if strings.TrimSpace(co.Name) == "" {
		v.add("co_applicant.name", "is required")
	}
	if _, ok := relations[strings.ToLower(strings.TrimSpace(co.Relation))]; !ok {
		v.add("co_applicant.relation", "must be one of father, mother, spouse, sibling, guardian, other")
	}
	if co.AnnualIncome < 0 {
		v.add("co_applicant.annual_income", "must not be negative")
	}

	return v.errOrNil()
}

// Profile derives the scorer input from the application. The co-applicant's
// income stands in for family income.
func (a Application) Profile(now time.Time) eligibility.Profile {
	age := 0
	if dob, err := time.Parse(DateLayout, a.Personal.DateOfBirth); err == nil {
		age = AgeOn(dob, now)
	}
	return eligibility.Profile{
		Age:                age,
		AnnualFamilyIncome: a.CoApplicant.AnnualIncome,
		CourseType:         a.Course.CourseType,
		AcademicRecord:     a.Course.AcademicRecord,
	}
}

// AgeOn returns the completed years between dob and now.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Name == "" && strings.Contains(addr.Address, ".")
}
