package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/pkg/logger"
)

// verify polls the admin summary until the stored totals grew by exactly
// what the server acknowledged, or settle elapses. Tracking events are
// persisted asynchronously so the first reads may lag.
func verify(ctx context.Context, c *client, settle time.Duration, before repository.Totals, stats *Stats) error {
	deadline := time.Now().Add(settle)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		s, err := c.summary(ctx)
		if err != nil {
			return fmt.Errorf("summary failed: %w", err)
		}
		diff := compare(before, s.Totals, stats)
		if diff == "" {
			logger.Get().Info(ctx, "stored totals verified",
				logger.Int64("events", s.Totals.Events),
				logger.Int64("eligibilityChecks", s.Totals.EligibilityChecks),
				logger.Int64("emiCalculations", s.Totals.EMICalculations))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrMismatch, diff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// compare returns an empty string when after-before matches stats.
func compare(before, after repository.Totals, stats *Stats) string {
	if got := after.EligibilityChecks - before.EligibilityChecks; got != stats.ChecksOK {
		return fmt.Sprintf("eligibility checks stored %d, acknowledged %d", got, stats.ChecksOK)
	}
	if got := after.EMICalculations - before.EMICalculations; got != stats.CalculationsOK {
		return fmt.Sprintf("emi calculations stored %d, acknowledged %d", got, stats.CalculationsOK)
	}
	if got := after.Events - before.Events; got != stats.EventsAccepted {
		return fmt.Sprintf("events stored %d, accepted %d", got, stats.EventsAccepted)
	}
	return ""
}
