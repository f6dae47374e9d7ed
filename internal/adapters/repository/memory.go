package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/model"
	"github.com/okian/fundineed/pkg/metrics"
)

// MemoryStore keeps every collection in process memory. Data is lost on
// restart.
type MemoryStore struct {
	mu sync.RWMutex

	checks       []model.EligibilityCheck
	calculations []model.EMICalculation
	applications []model.Application
	appIndex     map[string]int
	enquiries    []model.Enquiry

	eventIDs map[string]struct{}
	sessions map[string]struct{}
	counters analytics.Counters
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appIndex: make(map[string]int),
		eventIDs: make(map[string]struct{}),
		sessions: make(map[string]struct{}),
		counters: analytics.NewCounters(),
	}
}

// newestFirst copies the last limit items of s in reverse order.
func newestFirst[T any](s []T, limit int) []T {
	n := min(limit, len(s))
	out := make([]T, 0, n)
	for i := len(s) - 1; i >= len(s)-n; i-- {
		out = append(out, s[i])
	}
	return out
}

func (m *MemoryStore) SaveEligibilityCheck(_ context.Context, c model.EligibilityCheck) error {
	defer observe("save_eligibility_check", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, c)
	metrics.UpdateRepositoryRecords(collectionEligibility, len(m.checks))
	return nil
}

func (m *MemoryStore) ListEligibilityChecks(_ context.Context, limit int) ([]model.EligibilityCheck, error) {
	defer observe("list_eligibility_checks", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.checks, limit), nil
}

func (m *MemoryStore) SaveEMICalculation(_ context.Context, c model.EMICalculation) error {
	defer observe("save_emi_calculation", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculations = append(m.calculations, c)
	metrics.UpdateRepositoryRecords(collectionEMI, len(m.calculations))
	return nil
}

func (m *MemoryStore) ListEMICalculations(_ context.Context, limit int) ([]model.EMICalculation, error) {
	defer observe("list_emi_calculations", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.calculations, limit), nil
}

func (m *MemoryStore) SaveApplication(_ context.Context, a model.Application) error { //nolint:gocritic // hugeParam: stored by value
	defer observe("save_application", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appIndex[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	m.appIndex[a.ID] = len(m.applications)
	m.applications = append(m.applications, a)
	metrics.UpdateRepositoryRecords(collectionApplications, len(m.applications))
	return nil
}

func (m *MemoryStore) GetApplication(_ context.Context, id string) (model.Application, error) {
	defer observe("get_application", time.Now())
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.appIndex[id]
	if !ok {
		return model.Application{}, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	return m.applications[i], nil
}

func (m *MemoryStore) ListApplications(_ context.Context, limit int) ([]model.Application, error) {
	defer observe("list_applications", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.applications, limit), nil
}

func (m *MemoryStore) UpdateApplicationStatus(_ context.Context, id string, next model.Status, at time.Time) (model.Application, error) {
	defer observe("update_application_status", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.appIndex[id]
	if !ok {
		return model.Application{}, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	a := m.applications[i]
	if err := transition(&a, next, at); err != nil {
		return model.Application{}, err
	}
	m.applications[i] = a
	return a, nil
}

func (m *MemoryStore) SaveEnquiry(_ context.Context, e model.Enquiry) error {
	defer observe("save_enquiry", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enquiries = append(m.enquiries, e)
	metrics.UpdateRepositoryRecords(collectionEnquiries, len(m.enquiries))
	return nil
}

func (m *MemoryStore) ListEnquiries(_ context.Context, limit int) ([]model.Enquiry, error) {
	defer observe("list_enquiries", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.enquiries, limit), nil
}

// RecordEvent counts e once per event id.
func (m *MemoryStore) RecordEvent(_ context.Context, e analytics.Event) error {
	defer observe("record_event", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.eventIDs[e.EventID]; ok {
		return nil
	}
	m.eventIDs[e.EventID] = struct{}{}
	m.sessions[e.SessionID] = struct{}{}
	m.counters.Total++
	m.counters.Sessions = int64(len(m.sessions))
	m.counters.ByKind[e.Kind]++
	if e.Path != "" {
		m.counters.ByPath[e.Path]++
	}
	metrics.UpdateRepositoryRecords(collectionEvents, len(m.eventIDs))
	return nil
}

// Counters returns a copy of the running totals.
func (m *MemoryStore) Counters(_ context.Context) (analytics.Counters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := analytics.NewCounters()
	out.Total = m.counters.Total
	out.Sessions = m.counters.Sessions
	for k, v := range m.counters.ByKind {
		out.ByKind[k] = v
	}
	for k, v := range m.counters.ByPath {
		out.ByPath[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) (Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Totals{
		EligibilityChecks: int64(len(m.checks)),
		EMICalculations:   int64(len(m.calculations)),
		Applications:      int64(len(m.applications)),
		Enquiries:         int64(len(m.enquiries)),
		Events:            m.counters.Total,
	}, nil
}

func (m *MemoryStore) Close() error { return nil }
