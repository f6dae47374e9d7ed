package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/pkg/logger"
)

type counters struct {
	checks, calcs, accepted, duplicate, rejected, failed atomic.Int64
}

// Run executes a complete traffic run: readiness, submission and, when
// admin credentials are configured, verification of the stored totals.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting traffic run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("checks", cfg.Checks),
		logger.Int("calculations", cfg.Calculations),
		logger.Int("events", cfg.Events),
		logger.Float64("duplicateRatio", cfg.DuplicateRatio),
		logger.Int("workers", cfg.Workers))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var before repository.Totals
	if cfg.Verifying() {
		if err := c.login(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("admin login failed: %w", err)
		}
		s, err := c.summary(ctx)
		if err != nil {
			return nil, fmt.Errorf("initial summary failed: %w", err)
		}
		before = s.Totals
	}

	jobs := newGenerator(cfg.Seed).jobs(cfg)
	var n counters
	submit(ctx, c, cfg.Workers, jobs, &n)

	stats.ChecksOK = n.checks.Load()
	stats.CalculationsOK = n.calcs.Load()
	stats.EventsAccepted = n.accepted.Load()
	stats.EventsDuplicate = n.duplicate.Load()
	stats.EventsRejected = n.rejected.Load()
	stats.Failed = n.failed.Load()

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("traffic run interrupted: %w", err)
	}

	if cfg.Verifying() {
		if err := verify(ctx, c, cfg.SettleTimeout, before, stats); err != nil {
			return stats, err
		}
		stats.Verified = true
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "traffic run completed",
		logger.Int64("checks", stats.ChecksOK),
		logger.Int64("calculations", stats.CalculationsOK),
		logger.Int64("eventsAccepted", stats.EventsAccepted),
		logger.Int64("eventsDuplicate", stats.EventsDuplicate),
		logger.Int64("eventsRejected", stats.EventsRejected),
		logger.Int64("failed", stats.Failed),
		logger.Bool("verified", stats.Verified),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submit fans jobs out to workers and tallies each outcome.
func submit(ctx context.Context, c *client, workers int, jobs []job, n *counters) {
	ch := make(chan job, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				if ctx.Err() != nil {
					continue
				}
				code, err := c.do(ctx, http.MethodPost, j.path, j.body, nil)
				if err != nil {
					n.failed.Add(1)
					continue
				}
				tally(j.kind, code, n)
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()
	wg.Wait()
}

func tally(kind jobKind, code int, n *counters) {
	switch {
	case kind == jobEligibility && code == http.StatusOK:
		n.checks.Add(1)
	case kind == jobEMI && code == http.StatusOK:
		n.calcs.Add(1)
	case kind == jobTrack && code == http.StatusAccepted:
		n.accepted.Add(1)
	case kind == jobTrack && code == http.StatusOK:
		n.duplicate.Add(1)
	case kind == jobTrack && code == http.StatusTooManyRequests:
		n.rejected.Add(1)
	default:
		n.failed.Add(1)
	}
}
