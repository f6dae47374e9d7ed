// Package service wires the calculators, forms, tracking pipeline and
// back-office reads behind the dependencies the HTTP API needs.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fundineed/internal/adapters/cache"
	"github.com/okian/fundineed/internal/adapters/http/api"
	eventqueue "github.com/okian/fundineed/internal/adapters/mq/queue"
	workerpool "github.com/okian/fundineed/internal/adapters/mq/worker"
	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/internal/auth"
	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/dedupe"
	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/internal/domain/model"
	"github.com/okian/fundineed/pkg/logger"
	"github.com/okian/fundineed/pkg/metrics"
)

const (
	defaultQueueSize    = 10000
	defaultDedupeSize   = 50000
	defaultCacheTTL     = 24 * time.Hour
	defaultCacheEntries = 1024
	scheduleCachePrefix = "emi:schedule"
	statsContextTimeout = 2 * time.Second
)

var _ api.Dependencies = (*Service)(nil)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	cache   cache.Cache
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	pool    *workerpool.Pool
	authn   *auth.Authenticator

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	cacheTTL    time.Duration
	now         func() time.Time

	// State
	started bool
	stopped bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		cacheTTL:    defaultCacheTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start migrates the store if it needs it and starts the tracking pipeline.
// Calling Start on a started service is a no-op. A stopped service has
// closed its store and cannot be started again.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if m, ok := s.store.(interface{ Migrate(context.Context) error }); ok {
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate store: %w", err)
		}
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(defaultCacheEntries)
	}

	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = workerpool.NewPool(s.workerCount, q, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the tracking queue until ctx expires, then closes the cache and
// the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping service...")

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "tracking queue not fully drained", logger.Error(err))
		s.pool.Stop()
		firstErr = err
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Error(ctx, "failed to close cache", logger.Error(err))
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close store: %w", err)
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "service stopped")
	return firstErr
}

// Ready reports whether the service can take traffic.
func (s *Service) Ready(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.queue.IsClosed() {
		return ErrShuttingDown
	}
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// CheckEligibility scores p and records the check.
func (s *Service) CheckEligibility(ctx context.Context, p eligibility.Profile) (model.EligibilityCheck, error) {
	res := eligibility.Score(p)
	check := model.EligibilityCheck{
		ID:        uuid.NewString(),
		Profile:   p,
		Result:    res,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveEligibilityCheck(ctx, check); err != nil {
		return model.EligibilityCheck{}, err
	}
	metrics.RecordEligibilityCheck(string(res.Tier), res.Score)
	return check, nil
}

// CalculateEMI amortizes t and records the calculation. Terms whose result
// is not finite fail with emi.ErrOverflow and are not recorded.
func (s *Service) CalculateEMI(ctx context.Context, t emi.Terms) (model.EMICalculation, error) {
	res, err := t.Calculate()
	if err != nil {
		return model.EMICalculation{}, err
	}
	calc := model.EMICalculation{
		ID:        uuid.NewString(),
		Terms:     t,
		Result:    res,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveEMICalculation(ctx, calc); err != nil {
		return model.EMICalculation{}, err
	}
	metrics.RecordEMICalculation(string(t.Classify()))
	return calc, nil
}

// EMISchedule returns the repayment schedule for t, served from the cache
// when possible. Cache failures only cost a recompute.
func (s *Service) EMISchedule(ctx context.Context, t emi.Terms) ([]emi.Installment, error) {
	if _, err := t.Calculate(); err != nil {
		return nil, err
	}
	key := scheduleKey(t)
	if b, ok := s.cache.Get(ctx, key); ok {
		var rows []emi.Installment
		if err := json.Unmarshal(b, &rows); err == nil {
			metrics.RecordEMISchedule()
			return rows, nil
		}
		s.logger.Warn(ctx, "discarding unreadable cached schedule", logger.String("key", key))
	}

	rows := emi.Schedule(t)
	metrics.RecordEMISchedule()
	if b, err := json.Marshal(rows); err == nil {
		if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
			s.logger.Warn(ctx, "failed to cache schedule", logger.String("key", key), logger.Error(err))
		}
	}
	return rows, nil
}

func scheduleKey(t emi.Terms) string {
	return cache.Key(scheduleCachePrefix,
		strconv.FormatFloat(t.Principal, 'g', -1, 64),
		strconv.FormatFloat(t.AnnualRatePercent, 'g', -1, 64),
		strconv.Itoa(t.TenureMonths),
	)
}

// SubmitApplication validates a, attaches a preliminary score and stores it
// as submitted.
func (s *Service) SubmitApplication(ctx context.Context, a model.Application) (model.Application, error) { //nolint:gocritic // hugeParam: form value
	now := s.now()
	if err := a.Validate(now); err != nil {
		return model.Application{}, err
	}
	a.ID = uuid.NewString()
	a.Status = model.StatusSubmitted
	a.Eligibility = eligibility.Score(a.Profile(now))
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.store.SaveApplication(ctx, a); err != nil {
		return model.Application{}, err
	}
	metrics.RecordApplication(string(a.Status))
	s.logger.Info(ctx, "application submitted",
		logger.String("id", a.ID),
		logger.Int("score", a.Eligibility.Score),
	)
	return a, nil
}

// SubmitEnquiry validates and stores a contact enquiry.
func (s *Service) SubmitEnquiry(ctx context.Context, e model.Enquiry) (model.Enquiry, error) {
	if err := e.Validate(); err != nil {
		return model.Enquiry{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if err := s.store.SaveEnquiry(ctx, e); err != nil {
		return model.Enquiry{}, err
	}
	metrics.RecordEnquiry()
	return e, nil
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordTrackingDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e analytics.Event) error { //nolint:gocritic // hugeParam: queued by value
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return ErrNotStarted
	}
	if err := q.Enqueue(ctx, e); err != nil {
		s.logger.Debug(ctx, "event rejected", logger.String("eventID", e.EventID), logger.Error(err))
		return err
	}
	return nil
}

// Login exchanges the staff credential for a token.
func (s *Service) Login(ctx context.Context, username, password string) (auth.Token, error) {
	if s.authn == nil {
		metrics.RecordLogin("failure")
		return auth.Token{}, auth.ErrInvalidCredentials
	}
	tok, err := s.authn.Login(username, password)
	if err != nil {
		metrics.RecordLogin("failure")
		s.logger.Warn(ctx, "admin login failed", logger.String("username", username))
		return auth.Token{}, err
	}
	metrics.RecordLogin("success")
	return tok, nil
}

// Summary returns record totals and event counters.
func (s *Service) Summary(ctx context.Context) (api.Summary, error) {
	totals, err := s.store.Count(ctx)
	if err != nil {
		return api.Summary{}, err
	}
	counters, err := s.store.Counters(ctx)
	if err != nil {
		return api.Summary{}, err
	}
	return api.Summary{Totals: totals, Counters: counters}, nil
}

// ListEligibilityChecks returns the newest checks.
func (s *Service) ListEligibilityChecks(ctx context.Context, limit int) ([]model.EligibilityCheck, error) {
	return s.store.ListEligibilityChecks(ctx, limit)
}

// ListEMICalculations returns the newest calculations.
func (s *Service) ListEMICalculations(ctx context.Context, limit int) ([]model.EMICalculation, error) {
	return s.store.ListEMICalculations(ctx, limit)
}

// ListApplications returns the newest applications.
func (s *Service) ListApplications(ctx context.Context, limit int) ([]model.Application, error) {
	return s.store.ListApplications(ctx, limit)
}

// GetApplication returns one application.
func (s *Service) GetApplication(ctx context.Context, id string) (model.Application, error) {
	return s.store.GetApplication(ctx, id)
}

// UpdateApplicationStatus moves an application through review.
func (s *Service) UpdateApplicationStatus(ctx context.Context, id string, status model.Status) (model.Application, error) {
	a, err := s.store.UpdateApplicationStatus(ctx, id, status, s.now())
	if err != nil {
		return model.Application{}, err
	}
	metrics.RecordApplication(string(status))
	s.logger.Info(ctx, "application status changed",
		logger.String("id", id),
		logger.String("status", string(status)),
	)
	return a, nil
}

// ListEnquiries returns the newest enquiries.
func (s *Service) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	return s.store.ListEnquiries(ctx, limit)
}

// Counters returns the tracking counters.
func (s *Service) Counters(ctx context.Context) (analytics.Counters, error) {
	return s.store.Counters(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsContextTimeout)
	defer cancel()

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	if totals, err := s.store.Count(ctx); err == nil {
		stats["totals"] = totals
	}
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}
