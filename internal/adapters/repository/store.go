// Package repository persists what visitors submit and serves it back to the
// back-office.
//
// Collections are append-only and ordered by insertion. Lists return the
// newest record first.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/model"
	"github.com/okian/fundineed/pkg/metrics"
)

// MaxListLimit is the largest page a list call may request.
const MaxListLimit = 1000

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Collection names used in metrics.
const (
	collectionEligibility  = "eligibility_checks"
	collectionEMI          = "emi_calculations"
	collectionApplications = "applications"
	collectionEnquiries    = "enquiries"
	collectionEvents       = "events"
)

// Totals counts the records in each collection.
type Totals struct {
	EligibilityChecks int64 `json:"eligibility_checks"`
	EMICalculations   int64 `json:"emi_calculations"`
	Applications      int64 `json:"applications"`
	Enquiries         int64 `json:"enquiries"`
	Events            int64 `json:"events"`
}

// Store provides read/write access to every collection. It doubles as the
// analytics sink for the tracking worker pool.
type Store interface {
	analytics.Sink

	SaveEligibilityCheck(ctx context.Context, c model.EligibilityCheck) error
	ListEligibilityChecks(ctx context.Context, limit int) ([]model.EligibilityCheck, error)

	SaveEMICalculation(ctx context.Context, c model.EMICalculation) error
	ListEMICalculations(ctx context.Context, limit int) ([]model.EMICalculation, error)

	SaveApplication(ctx context.Context, a model.Application) error
	// GetApplication returns ErrNotFound for an unknown id.
	GetApplication(ctx context.Context, id string) (model.Application, error)
	ListApplications(ctx context.Context, limit int) ([]model.Application, error)
	// UpdateApplicationStatus returns ErrInvalidTransition when the current
	// status cannot move to next.
	UpdateApplicationStatus(ctx context.Context, id string, next model.Status, at time.Time) (model.Application, error)

	SaveEnquiry(ctx context.Context, e model.Enquiry) error
	ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error)

	Count(ctx context.Context) (Totals, error)
	Close() error
}

// Open builds the store selected by driver.
func Open(driver, dbPath string, opts ...Option) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(dbPath, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func checkLimit(limit int) error {
	if limit <= 0 || limit > MaxListLimit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func transition(a *model.Application, next model.Status, at time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	a.UpdatedAt = at
	return nil
}
