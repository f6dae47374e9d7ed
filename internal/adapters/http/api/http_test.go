package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/fundineed/internal/adapters/http/api"
	"github.com/okian/fundineed/internal/adapters/mq/queue"
	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/internal/auth"
	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeduper) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

type mockDependencies struct {
	mockDeduper
	authn      *auth.Authenticator
	enqueueErr error
	enqueued   []analytics.Event
	apps       map[string]model.Application
	checks     []model.EligibilityCheck
	readyErr   error
	lastLimit  int
}

func newMockDependencies(authn *auth.Authenticator) *mockDependencies {
	return &mockDependencies{authn: authn, apps: map[string]model.Application{}}
}

func (m *mockDependencies) CheckEligibility(_ context.Context, p eligibility.Profile) (model.EligibilityCheck, error) {
	c := model.EligibilityCheck{ID: fmt.Sprintf("chk-%d", len(m.checks)+1), Profile: p, Result: eligibility.Score(p)}
	m.checks = append(m.checks, c)
	return c, nil
}

func (m *mockDependencies) CalculateEMI(_ context.Context, t emi.Terms) (model.EMICalculation, error) {
	res, err := t.Calculate()
	if err != nil {
		return model.EMICalculation{}, err
	}
	return model.EMICalculation{ID: "emi-1", Terms: t, Result: res}, nil
}

func (m *mockDependencies) EMISchedule(_ context.Context, t emi.Terms) ([]emi.Installment, error) {
	if _, err := t.Calculate(); err != nil {
		return nil, err
	}
	return emi.Schedule(t), nil
}

func (m *mockDependencies) SubmitApplication(_ context.Context, a model.Application) (model.Application, error) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if err := a.Validate(now); err != nil {
		return model.Application{}, err
	}
	a.ID = "app-1"
	a.Status = model.StatusSubmitted
	a.Eligibility = eligibility.Score(a.Profile(now))
	m.apps[a.ID] = a
	return a, nil
}

func (m *mockDependencies) SubmitEnquiry(_ context.Context, e model.Enquiry) (model.Enquiry, error) {
	if err := e.Validate(); err != nil {
		return model.Enquiry{}, err
	}
	e.ID = "enq-1"
	return e, nil
}

func (m *mockDependencies) Enqueue(_ context.Context, e analytics.Event) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, e)
	return nil
}

func (m *mockDependencies) Login(_ context.Context, username, password string) (auth.Token, error) {
	return m.authn.Login(username, password)
}

func (m *mockDependencies) Summary(_ context.Context) (api.Summary, error) {
	return api.Summary{
		Totals:   repository.Totals{EligibilityChecks: int64(len(m.checks)), Applications: int64(len(m.apps))},
		Counters: analytics.NewCounters(),
	}, nil
}

func (m *mockDependencies) ListEligibilityChecks(_ context.Context, limit int) ([]model.EligibilityCheck, error) {
	m.lastLimit = limit
	if limit < 1 || limit > repository.MaxListLimit {
		return nil, repository.ErrInvalidLimit
	}
	return m.checks, nil
}

func (m *mockDependencies) ListEMICalculations(_ context.Context, limit int) ([]model.EMICalculation, error) {
	m.lastLimit = limit
	return nil, nil
}

func (m *mockDependencies) ListApplications(_ context.Context, limit int) ([]model.Application, error) {
	m.lastLimit = limit
	out := make([]model.Application, 0, len(m.apps))
	for _, a := range m.apps {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockDependencies) GetApplication(_ context.Context, id string) (model.Application, error) {
	a, ok := m.apps[id]
	if !ok {
		return model.Application{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *mockDependencies) UpdateApplicationStatus(_ context.Context, id string, next model.Status) (model.Application, error) {
	a, ok := m.apps[id]
	if !ok {
		return model.Application{}, repository.ErrNotFound
	}
	if !a.Status.CanTransitionTo(next) {
		return model.Application{}, repository.ErrInvalidTransition
	}
	a.Status = next
	m.apps[id] = a
	return a, nil
}

func (m *mockDependencies) ListEnquiries(_ context.Context, limit int) ([]model.Enquiry, error) {
	m.lastLimit = limit
	return []model.Enquiry{{ID: "enq-1", Name: "Ravi"}}, nil
}

func (m *mockDependencies) Counters(_ context.Context) (analytics.Counters, error) {
	c := analytics.NewCounters()
	c.Total = int64(len(m.enqueued))
	return c, nil
}

func (m *mockDependencies) Ready(_ context.Context) error { return m.readyErr }

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func do(mux http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

const validApplicationJSON = `{
	"personal": {"full_name": "Asha Verma", "email": "asha@example.com", "phone": "9876543210",
		"date_of_birth": "2002-05-14", "city": "Pune"},
	"course": {"course_type": "engineering", "university": "TU Munich", "country": "Germany",
		"course_start": "2026-09", "academic_record": "excellent"},
	"loan": {"amount": 2500000, "tenure_months": 120, "collateral": false},
	"co_applicant": {"name": "R. Verma", "relation": "father", "annual_income": 600000}
}`

func newTestServer(opts ...api.Option) (*http.ServeMux, *mockDependencies) {
	authn, err := auth.New("admin", "s3cret", "test-secret")
	if err != nil {
		panic(err)
	}
	deps := newMockDependencies(authn)
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"queue_len": 0}}, authn, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux, deps
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, deps := newTestServer()

		Convey("Then health serves the metrics registry", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then readiness follows the dependencies", func() {
			So(do(mux, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusOK)
			deps.readyErr = errors.New("store down")
			w := do(mux, http.MethodGet, "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeBody(w)["code"], ShouldEqual, "not_ready")
		})

		Convey("Then stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w), ShouldContainKey, "queue_len")
		})

		Convey("Then the dashboard page is embedded", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "/api/admin/login")
		})

		Convey("Then a wrong method is refused", func() {
			w := do(mux, http.MethodGet, "/api/eligibility", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestCalculators(t *testing.T) {
	Convey("Given the calculator endpoints", t, func() {
		mux, _ := newTestServer()

		Convey("When checking eligibility with a bracket code", func() {
			w := do(mux, http.MethodPost, "/api/eligibility",
				`{"age":22,"income_bracket":"3l_5l","course_type":"engineering","academic_record":"excellent"}`)

			Convey("Then the bracket lower bound is scored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var check model.EligibilityCheck
				So(json.Unmarshal(w.Body.Bytes(), &check), ShouldBeNil)
				So(check.Profile.AnnualFamilyIncome, ShouldEqual, 300000)
				So(check.Result.Score, ShouldEqual, 100)
				So(check.Result.Tier, ShouldEqual, eligibility.TierExcellent)
			})
		})

		Convey("When checking eligibility with a raw income", func() {
			w := do(mux, http.MethodPost, "/api/eligibility",
				`{"age":40,"annual_family_income":100000,"course_type":"arts","academic_record":"average"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var check model.EligibilityCheck
			So(json.Unmarshal(w.Body.Bytes(), &check), ShouldBeNil)
			So(check.Result.Tier, ShouldEqual, eligibility.TierPoor)
		})

		Convey("When income is missing", func() {
			w := do(mux, http.MethodPost, "/api/eligibility", `{"age":22,"course_type":"mba"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the body has unknown fields", func() {
			w := do(mux, http.MethodPost, "/api/eligibility", `{"age":22,"income_bracket":"3l_5l","salary":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When calculating an EMI", func() {
			w := do(mux, http.MethodPost, "/api/emi",
				`{"principal":1000000,"annual_rate_percent":10,"tenure_months":120}`)

			Convey("Then full precision and display values are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["kind"], ShouldEqual, "standard")
				result := body["result"].(map[string]any)
				So(result["monthly_payment"].(float64), ShouldAlmostEqual, 13215.07, 0.01)
				display := body["display"].(map[string]any)
				So(display["monthly_payment"], ShouldEqual, "13215.07")
			})
		})

		Convey("When the EMI terms are degenerate", func() {
			w := do(mux, http.MethodPost, "/api/emi", `{"principal":0,"annual_rate_percent":10,"tenure_months":12}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["kind"], ShouldEqual, "degenerate")
			So(body["display"].(map[string]any)["total_payment"], ShouldEqual, "0.00")
		})

		Convey("When the tenure overflows the growth factor", func() {
			w := do(mux, http.MethodPost, "/api/emi", `{"principal":500000,"annual_rate_percent":10,"tenure_months":100000}`)

			Convey("Then the installment is the monthly interest", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["display"].(map[string]any)["monthly_payment"], ShouldEqual, "4166.67")
			})
		})

		Convey("When the EMI result cannot be represented", func() {
			w := do(mux, http.MethodPost, "/api/emi",
				`{"principal":1.7976931348623157e308,"annual_rate_percent":10,"tenure_months":600}`)

			Convey("Then it is rejected as unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeBody(w)["code"], ShouldEqual, "overflow")
			})
		})

		Convey("When a schedule is requested for a NaN principal", func() {
			w := do(mux, http.MethodGet, "/api/emi/schedule?principal=NaN&rate=5&tenure=12", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeBody(w)["code"], ShouldEqual, "overflow")
		})

		Convey("When requesting a schedule", func() {
			w := do(mux, http.MethodGet, "/api/emi/schedule?principal=120000&rate=0&tenure=12", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["installments"], ShouldHaveLength, 12)
			So(body["display"].(map[string]any)["monthly_payment"], ShouldEqual, "10000.00")
		})

		Convey("When the schedule is too long or malformed", func() {
			So(do(mux, http.MethodGet, "/api/emi/schedule?principal=1&rate=1&tenure=601", "").Code,
				ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/api/emi/schedule?principal=abc&rate=1&tenure=12", "").Code,
				ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the schedule terms are degenerate", func() {
			w := do(mux, http.MethodGet, "/api/emi/schedule?principal=1000&rate=5&tenure=0", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["installments"], ShouldBeEmpty)
		})
	})
}

func TestForms(t *testing.T) {
	Convey("Given the form endpoints", t, func() {
		mux, deps := newTestServer()

		Convey("When a valid application is submitted", func() {
			w := do(mux, http.MethodPost, "/api/applications", validApplicationJSON)

			Convey("Then it is created with a score", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var app model.Application
				So(json.Unmarshal(w.Body.Bytes(), &app), ShouldBeNil)
				So(app.Status, ShouldEqual, model.StatusSubmitted)
				So(app.Eligibility.Score, ShouldEqual, 100)
				So(deps.apps, ShouldContainKey, "app-1")
			})
		})

		Convey("When an invalid application is submitted", func() {
			body := strings.Replace(validApplicationJSON, `"asha@example.com"`, `"asha"`, 1)
			w := do(mux, http.MethodPost, "/api/applications", body)

			Convey("Then every failing field is listed", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				resp := decodeBody(w)
				So(resp["code"], ShouldEqual, "validation_failed")
				fields := resp["fields"].([]any)
				So(fields, ShouldHaveLength, 1)
				So(fields[0].(map[string]any)["field"], ShouldEqual, "personal.email")
			})
		})

		Convey("When an enquiry is submitted", func() {
			w := do(mux, http.MethodPost, "/api/enquiries",
				`{"name":"Ravi","email":"ravi@example.in","message":"Do you fund MS in Canada?"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decodeBody(w)["id"], ShouldEqual, "enq-1")
		})

		Convey("When the body exceeds the limit", func() {
			small, _ := newTestServer(api.WithMaxBodyBytes(32))
			w := do(small, http.MethodPost, "/api/enquiries",
				`{"name":"Ravi","email":"ravi@example.in","message":"`+strings.Repeat("x", 64)+`"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a tight form rate limit", t, func() {
		mux, _ := newTestServer(api.WithFormRateLimit(2, time.Minute))
		enquiry := `{"name":"Ravi","email":"ravi@example.in","message":"hi"}`

		Convey("When the budget is spent", func() {
			So(do(mux, http.MethodPost, "/api/enquiries", enquiry).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/api/enquiries", enquiry).Code, ShouldEqual, http.StatusCreated)
			w := do(mux, http.MethodPost, "/api/enquiries", enquiry)

			Convey("Then the next submission is limited", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Header().Get("Retry-After"), ShouldEqual, "60")
				So(decodeBody(w)["code"], ShouldEqual, "rate_limited")
			})
		})
	})
}

func TestTracking(t *testing.T) {
	Convey("Given the tracking endpoint", t, func() {
		mux, deps := newTestServer()
		event := `{"event_id":"evt-1","session_id":"s-1","kind":"page_view","path":"/"}`

		Convey("When a new event arrives", func() {
			w := do(mux, http.MethodPost, "/api/track", event)

			Convey("Then it is accepted and enqueued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decodeBody(w)["status"], ShouldEqual, "accepted")
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].TS.IsZero(), ShouldBeFalse)
			})

			Convey("And the same event again is a duplicate", func() {
				w := do(mux, http.MethodPost, "/api/track", event)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["duplicate"], ShouldEqual, true)
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = queue.ErrFull
			w := do(mux, http.MethodPost, "/api/track", event)

			Convey("Then it answers backpressure and forgets the id", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeBody(w)["code"], ShouldEqual, "backpressure")
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the kind is unknown", func() {
			w := do(mux, http.MethodPost, "/api/track", `{"event_id":"e","session_id":"s","kind":"scroll"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.Size(), ShouldEqual, 0)
		})
	})
}

func TestAdmin(t *testing.T) {
	Convey("Given the admin endpoints", t, func() {
		mux, deps := newTestServer()

		Convey("When calling without a token", func() {
			w := do(mux, http.MethodGet, "/api/admin/summary", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(w.Header().Get("WWW-Authenticate"), ShouldContainSubstring, "Bearer")
		})

		Convey("When logging in with a wrong password", func() {
			w := do(mux, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When logged in", func() {
			w := do(mux, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var tok auth.Token
			So(json.Unmarshal(w.Body.Bytes(), &tok), ShouldBeNil)
			bearer := []string{"Authorization", "Bearer " + tok.AccessToken}

			So(do(mux, http.MethodPost, "/api/applications", validApplicationJSON).Code, ShouldEqual, http.StatusCreated)

			Convey("Then the summary is readable", func() {
				w := do(mux, http.MethodGet, "/api/admin/summary", "", bearer...)
				So(w.Code, ShouldEqual, http.StatusOK)
				totals := decodeBody(w)["totals"].(map[string]any)
				So(totals["applications"], ShouldEqual, 1.0)
			})

			Convey("Then listings use the default limit", func() {
				w := do(mux, http.MethodGet, "/api/admin/enquiries", "", bearer...)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["count"], ShouldEqual, 1.0)
				So(deps.lastLimit, ShouldEqual, 50)
			})

			Convey("Then empty listings are arrays", func() {
				w := do(mux, http.MethodGet, "/api/admin/emi-calculations?limit=10", "", bearer...)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"items":[]`)
				So(deps.lastLimit, ShouldEqual, 10)
			})

			Convey("Then a bad limit is refused", func() {
				So(do(mux, http.MethodGet, "/api/admin/eligibility-checks?limit=x", "", bearer...).Code,
					ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/api/admin/eligibility-checks?limit=5000", "", bearer...).Code,
					ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then an application can be read and moved through review", func() {
				So(do(mux, http.MethodGet, "/api/admin/applications/app-1", "", bearer...).Code, ShouldEqual, http.StatusOK)
				So(do(mux, http.MethodGet, "/api/admin/applications/nope", "", bearer...).Code, ShouldEqual, http.StatusNotFound)

				w := do(mux, http.MethodPatch, "/api/admin/applications/app-1/status", `{"status":"approved"}`, bearer...)
				So(w.Code, ShouldEqual, http.StatusConflict)

				w = do(mux, http.MethodPatch, "/api/admin/applications/app-1/status", `{"status":"under_review"}`, bearer...)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["status"], ShouldEqual, "under_review")

				w = do(mux, http.MethodPatch, "/api/admin/applications/app-1/status", `{"status":"archived"}`, bearer...)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then event counters are readable", func() {
				w := do(mux, http.MethodGet, "/api/admin/events", "", bearer...)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w), ShouldContainKey, "by_kind")
			})
		})
	})

	Convey("Given a tight login rate limit", t, func() {
		mux, _ := newTestServer(api.WithLoginRateLimit(1, time.Minute))

		Convey("Then the second attempt is limited", func() {
			So(do(mux, http.MethodPost, "/api/admin/login", `{"username":"a","password":"b"}`).Code,
				ShouldEqual, http.StatusUnauthorized)
			So(do(mux, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret"}`).Code,
				ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestRateLimiter(t *testing.T) {
	Convey("Given a limiter of two per window", t, func() {
		l := api.NewRateLimiter(2, time.Minute)

		Convey("Then clients get separate budgets", func() {
			So(l.Allow("a"), ShouldBeTrue)
			So(l.Allow("a"), ShouldBeTrue)
			So(l.Allow("a"), ShouldBeFalse)
			So(l.Allow("b"), ShouldBeTrue)
			So(l.Clients(), ShouldEqual, 2)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kind and cause are both matched", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then Wrap keeps nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.NewKind("api.op", api.ErrUnauthorized).Error(), ShouldEqual, "api.op: unauthorized")
		})
	})
}
