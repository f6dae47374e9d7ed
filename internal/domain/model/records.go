package model

import (
	"strings"
	"time"

	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
)

const maxEnquiryMessage = 2000

// EligibilityCheck is a snapshot of one scorer call.
type EligibilityCheck struct {
	ID        string              `json:"id"`
	Profile   eligibility.Profile `json:"profile"`
	Result    eligibility.Result  `json:"result"`
	CreatedAt time.Time           `json:"created_at"`
}

// EMICalculation is a snapshot of one calculator call.
type EMICalculation struct {
	ID        string     `json:"id"`
	Terms     emi.Terms  `json:"terms"`
	Result    emi.Result `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
}

// Enquiry is a contact form submission.
type Enquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate requires a name, a reachable contact and a bounded message.
func (e Enquiry) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(e.Name) == "" {
		v.add("name", "is required")
	}
	if !validEmail(e.Email) {
		v.add("email", "must be a valid email address")
	}
	if e.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(e.Phone)) {
		v.add("phone", "must be a 10 digit Indian mobile number")
	}
	if len(e.Message) > maxEnquiryMessage {
		v.add("message", "must be at most 2000 characters")
	}
	return v.errOrNil()
}
