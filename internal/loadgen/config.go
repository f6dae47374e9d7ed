// Package loadgen drives synthetic visitor traffic against a running
// fundineed server and checks that the back office accounted for it.
package loadgen

import (
	"errors"
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultChecks        = 200
	DefaultCalculations  = 200
	DefaultEvents        = 2000
	DefaultTimeout       = 10 * time.Second
	DefaultSettleTimeout = 30 * time.Second
	pollInterval         = 100 * time.Millisecond
)

// ErrInvalidConfig is returned by Run for unusable settings.
var ErrInvalidConfig = errors.New("invalid load config")

// ErrMismatch is returned when the back office totals disagree with what
// the run was acknowledged for.
var ErrMismatch = errors.New("totals mismatch")

// Config holds configuration for a traffic run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Checks         int           // Eligibility checks to submit
	Calculations   int           // EMI calculations to submit
	Events         int           // Distinct tracking events to submit
	DuplicateRatio float64       // Share of events resent with the same id
	Workers        int           // Concurrent HTTP workers
	Timeout        time.Duration // HTTP request timeout
	SettleTimeout  time.Duration // How long to wait for async persistence
	AdminUsername  string        // Enables verification when set
	AdminPassword  string
	Seed           uint64 // Seed for the generator; 0 picks one
}

func (c Config) withDefaults() Config {
	if c.Checks == 0 {
		c.Checks = DefaultChecks
	}
	if c.Calculations == 0 {
		c.Calculations = DefaultCalculations
	}
	if c.Events == 0 {
		c.Events = DefaultEvents
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.Checks < 0 || c.Calculations < 0 || c.Events < 0:
		return errors.Join(ErrInvalidConfig, errors.New("counts must not be negative"))
	case c.DuplicateRatio < 0 || c.DuplicateRatio > 1:
		return errors.Join(ErrInvalidConfig, errors.New("duplicate ratio must be within [0, 1]"))
	}
	return nil
}

// Verifying reports whether admin credentials were supplied.
func (c Config) Verifying() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

// Stats holds run statistics.
type Stats struct {
	ChecksOK        int64
	CalculationsOK  int64
	EventsAccepted  int64
	EventsDuplicate int64
	EventsRejected  int64
	Failed          int64
	Verified        bool
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
