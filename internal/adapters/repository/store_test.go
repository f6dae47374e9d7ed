package repository_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/eligibility"
	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/internal/domain/model"
	logging "github.com/okian/fundineed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type storeFactory struct {
	name string
	open func(t *testing.T) repository.Store
}

func factories() []storeFactory {
	return []storeFactory{
		{name: "memory", open: func(*testing.T) repository.Store { return repository.NewMemoryStore() }},
		{name: "sqlite", open: func(t *testing.T) repository.Store {
			t.Helper()
			s, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "fundineed.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			if err := s.Migrate(context.Background()); err != nil {
				_ = s.Close()
				t.Fatalf("migrate: %v", err)
			}
			return s
		}},
	}
}

var base = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func application(id string) model.Application {
	return model.Application{
		ID:     id,
		Status: model.StatusSubmitted,
		Personal: model.Personal{
			FullName: "Asha Verma", Email: "asha@example.com", Phone: "9876543210",
			DateOfBirth: "2002-05-14", City: "Pune",
		},
		Loan:      model.Loan{Amount: 1500000, TenureMonths: 84},
		CreatedAt: base,
		UpdatedAt: base,
	}
}

func TestStoreContract(t *testing.T) {
	_ = logging.Init(logging.WithOutput(io.Discard))
	ctx := context.Background()

	for _, f := range factories() {
		Convey("Given a "+f.name+" store", t, func() {
			s := f.open(t)
			Reset(func() { _ = s.Close() })

			Convey("When eligibility checks are saved", func() {
				for i := 1; i <= 3; i++ {
					p := eligibility.Profile{Age: 20 + i, AnnualFamilyIncome: 200000, CourseType: "mba", AcademicRecord: "good"}
					So(s.SaveEligibilityCheck(ctx, model.EligibilityCheck{
						ID:        fmt.Sprintf("chk-%d", i),
						Profile:   p,
						Result:    eligibility.Score(p),
						CreatedAt: base.Add(time.Duration(i) * time.Minute),
					}), ShouldBeNil)
				}

				Convey("Then they list newest first", func() {
					got, err := s.ListEligibilityChecks(ctx, 10)
					So(err, ShouldBeNil)
					So(got, ShouldHaveLength, 3)
					So(got[0].ID, ShouldEqual, "chk-3")
					So(got[2].ID, ShouldEqual, "chk-1")
					So(got[0].Result.Score, ShouldEqual, 85)
					So(got[0].Result.Factors, ShouldHaveLength, 4)
				})

				Convey("Then the limit is honoured", func() {
					got, err := s.ListEligibilityChecks(ctx, 2)
					So(err, ShouldBeNil)
					So(got, ShouldHaveLength, 2)
					So(got[1].ID, ShouldEqual, "chk-2")
				})

				Convey("Then invalid limits are rejected", func() {
					_, err := s.ListEligibilityChecks(ctx, 0)
					So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
					_, err = s.ListEligibilityChecks(ctx, repository.MaxListLimit+1)
					So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
				})
			})

			Convey("When an EMI calculation is saved", func() {
				terms := emi.Terms{Principal: 500000, AnnualRatePercent: 10, TenureMonths: 60}
				So(s.SaveEMICalculation(ctx, model.EMICalculation{ID: "emi-1", Terms: terms, Result: terms.Amortize(), CreatedAt: base}), ShouldBeNil)

				Convey("Then the full precision result round-trips", func() {
					got, err := s.ListEMICalculations(ctx, 5)
					So(err, ShouldBeNil)
					So(got, ShouldHaveLength, 1)
					So(got[0].Result.MonthlyPayment, ShouldEqual, terms.Amortize().MonthlyPayment)
					So(got[0].Terms, ShouldResemble, terms)
				})
			})

			Convey("When an application is saved", func() {
				So(s.SaveApplication(ctx, application("app-1")), ShouldBeNil)

				Convey("Then it can be fetched by id", func() {
					a, err := s.GetApplication(ctx, "app-1")
					So(err, ShouldBeNil)
					So(a.Personal.Email, ShouldEqual, "asha@example.com")
					So(a.Status, ShouldEqual, model.StatusSubmitted)
				})

				Convey("Then an unknown id is not found", func() {
					_, err := s.GetApplication(ctx, "nope")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})

				Convey("Then the same id cannot be saved twice", func() {
					err := s.SaveApplication(ctx, application("app-1"))
					So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
				})

				Convey("Then it moves through review", func() {
					at := base.Add(time.Hour)
					a, err := s.UpdateApplicationStatus(ctx, "app-1", model.StatusUnderReview, at)
					So(err, ShouldBeNil)
					So(a.Status, ShouldEqual, model.StatusUnderReview)
					So(a.UpdatedAt.Equal(at), ShouldBeTrue)

					a, err = s.UpdateApplicationStatus(ctx, "app-1", model.StatusApproved, at)
					So(err, ShouldBeNil)
					So(a.Status, ShouldEqual, model.StatusApproved)

					stored, err := s.GetApplication(ctx, "app-1")
					So(err, ShouldBeNil)
					So(stored.Status, ShouldEqual, model.StatusApproved)
				})

				Convey("Then skipping review is refused and nothing changes", func() {
					_, err := s.UpdateApplicationStatus(ctx, "app-1", model.StatusApproved, base)
					So(errors.Is(err, repository.ErrInvalidTransition), ShouldBeTrue)

					stored, _ := s.GetApplication(ctx, "app-1")
					So(stored.Status, ShouldEqual, model.StatusSubmitted)
				})

				Convey("Then updating an unknown id is not found", func() {
					_, err := s.UpdateApplicationStatus(ctx, "nope", model.StatusRejected, base)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When enquiries are saved", func() {
				So(s.SaveEnquiry(ctx, model.Enquiry{ID: "enq-1", Name: "Ravi", Email: "r@example.in", CreatedAt: base}), ShouldBeNil)
				So(s.SaveEnquiry(ctx, model.Enquiry{ID: "enq-2", Name: "Meera", Email: "m@example.in", CreatedAt: base}), ShouldBeNil)

				Convey("Then they list newest first", func() {
					got, err := s.ListEnquiries(ctx, 10)
					So(err, ShouldBeNil)
					So(got, ShouldHaveLength, 2)
					So(got[0].Name, ShouldEqual, "Meera")
				})
			})

			Convey("When tracking events are recorded", func() {
				events := []analytics.Event{
					{EventID: "e1", SessionID: "s1", Kind: analytics.KindPageView, Path: "/", TS: base},
					{EventID: "e2", SessionID: "s1", Kind: analytics.KindClick, Path: "/", Label: "apply-now", TS: base},
					{EventID: "e3", SessionID: "s2", Kind: analytics.KindPageView, Path: "/emi-calculator", TS: base},
					{EventID: "e1", SessionID: "s1", Kind: analytics.KindPageView, Path: "/", TS: base},
				}
				for _, e := range events {
					So(s.RecordEvent(ctx, e), ShouldBeNil)
				}

				Convey("Then each event id counts once", func() {
					c, err := s.Counters(ctx)
					So(err, ShouldBeNil)
					So(c.Total, ShouldEqual, 3)
					So(c.Sessions, ShouldEqual, 2)
					So(c.ByKind[analytics.KindPageView], ShouldEqual, 2)
					So(c.ByKind[analytics.KindClick], ShouldEqual, 1)
					So(c.ByPath["/"], ShouldEqual, 2)
					So(c.ByPath["/emi-calculator"], ShouldEqual, 1)
				})
			})

			Convey("When the store holds one of everything", func() {
				_ = s.SaveEligibilityCheck(ctx, model.EligibilityCheck{ID: "c", CreatedAt: base})
				_ = s.SaveEMICalculation(ctx, model.EMICalculation{ID: "m", CreatedAt: base})
				_ = s.SaveApplication(ctx, application("a"))
				_ = s.SaveEnquiry(ctx, model.Enquiry{ID: "q", CreatedAt: base})
				_ = s.RecordEvent(ctx, analytics.Event{EventID: "e", SessionID: "s", Kind: analytics.KindClick, TS: base})

				Convey("Then Count reports each collection", func() {
					totals, err := s.Count(ctx)
					So(err, ShouldBeNil)
					So(totals, ShouldResemble, repository.Totals{
						EligibilityChecks: 1, EMICalculations: 1, Applications: 1, Enquiries: 1, Events: 1,
					})
				})
			})
		})
	}
}

func TestOpen(t *testing.T) {
	_ = logging.Init(logging.WithOutput(io.Discard))

	Convey("Given store drivers", t, func() {
		Convey("Then memory is the default", func() {
			s, err := repository.Open("", "")
			So(err, ShouldBeNil)
			_, ok := s.(*repository.MemoryStore)
			So(ok, ShouldBeTrue)
		})

		Convey("Then sqlite needs a path", func() {
			_, err := repository.Open(repository.DriverSQLite, "")
			So(err, ShouldNotBeNil)
		})

		Convey("Then unknown drivers are rejected", func() {
			_, err := repository.Open("postgres", "")
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestSQLiteMigrate(t *testing.T) {
	_ = logging.Init(logging.WithOutput(io.Discard))
	ctx := context.Background()

	Convey("Given a fresh sqlite database", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "dir", "site.db")
		s, err := repository.NewSQLiteStore(path, repository.WithBusyTimeout(time.Second))
		So(err, ShouldBeNil)
		Reset(func() { _ = s.Close() })

		Convey("When migrated twice", func() {
			So(s.Migrate(ctx), ShouldBeNil)
			So(s.Migrate(ctx), ShouldBeNil)

			Convey("Then it is at the latest schema version", func() {
				v, err := s.Version(ctx)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, repository.SchemaVersion)
			})
		})

		Convey("When data is written and the file reopened", func() {
			So(s.Migrate(ctx), ShouldBeNil)
			So(s.SaveApplication(ctx, application("persisted")), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			again, err := repository.NewSQLiteStore(path)
			So(err, ShouldBeNil)
			defer func() { _ = again.Close() }()
			So(again.Migrate(ctx), ShouldBeNil)

			Convey("Then the data survives", func() {
				a, err := again.GetApplication(ctx, "persisted")
				So(err, ShouldBeNil)
				So(a.Loan.TenureMonths, ShouldEqual, 84)
			})
		})
	})
}
