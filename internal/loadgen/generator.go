package loadgen

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fundineed/internal/adapters/http/site"
	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/eligibility"
)

// Generator ranges.
const (
	minAge          = 17
	ageRange        = 24
	minPrincipal    = 100_000
	principalSteps  = 4_900
	principalStep   = 1_000
	minRate         = 7.5
	rateRange       = 6.5
	minTenure       = 12
	tenureRange     = 169
	sessionsPerLoad = 50
)

var (
	courses   = []string{"engineering", "computer science", "mba", "medicine", "data science", "arts", "law"}
	academics = []string{"excellent", "good", "average"}
)

type jobKind int

const (
	jobEligibility jobKind = iota
	jobEMI
	jobTrack
)

type job struct {
	kind jobKind
	path string
	body any
}

type eligibilityBody struct {
	Age            int    `json:"age"`
	IncomeBracket  string `json:"income_bracket"`
	CourseType     string `json:"course_type"`
	AcademicRecord string `json:"academic_record"`
}

type emiBody struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TenureMonths      int     `json:"tenure_months"`
}

// generator is not safe for concurrent use; jobs are built up front.
type generator struct {
	rng      *rand.Rand
	sessions []string
	paths    []string
	now      func() time.Time
}

func newGenerator(seed uint64) *generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	sessions := make([]string, sessionsPerLoad)
	for i := range sessions {
		sessions[i] = uuid.NewString()
	}
	return &generator{
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
		sessions: sessions,
		paths:    site.Paths(),
		now:      time.Now,
	}
}

func pick[T any](g *generator, xs []T) T {
	return xs[g.rng.IntN(len(xs))]
}

func (g *generator) eligibility() job {
	return job{kind: jobEligibility, path: "/api/eligibility", body: eligibilityBody{
		Age:            minAge + g.rng.IntN(ageRange),
		IncomeBracket:  pick(g, eligibility.Brackets()),
		CourseType:     pick(g, courses),
		AcademicRecord: pick(g, academics),
	}}
}

func (g *generator) emi() job {
	rate := minRate + g.rng.Float64()*rateRange
	return job{kind: jobEMI, path: "/api/emi", body: emiBody{
		Principal:         float64(minPrincipal + g.rng.IntN(principalSteps)*principalStep),
		AnnualRatePercent: math.Round(rate*100) / 100,
		TenureMonths:      minTenure + g.rng.IntN(tenureRange),
	}}
}

func (g *generator) event() analytics.Event {
	e := analytics.Event{
		EventID:   uuid.NewString(),
		SessionID: pick(g, g.sessions),
		Kind:      pick(g, analytics.Kinds()),
		Path:      pick(g, g.paths),
		TS:        g.now().UTC(),
	}
	if e.Kind == analytics.KindClick {
		e.Label = "cta"
	}
	return e
}

// jobs builds the full workload in a shuffled order. Duplicate events reuse
// an earlier event verbatim.
func (g *generator) jobs(cfg Config) []job {
	dups := int(math.Round(float64(cfg.Events) * cfg.DuplicateRatio))
	out := make([]job, 0, cfg.Checks+cfg.Calculations+cfg.Events+dups)
	for range cfg.Checks {
		out = append(out, g.eligibility())
	}
	for range cfg.Calculations {
		out = append(out, g.emi())
	}
	events := make([]analytics.Event, cfg.Events)
	for i := range events {
		events[i] = g.event()
		out = append(out, job{kind: jobTrack, path: "/api/track", body: events[i]})
	}
	if len(events) > 0 {
		for range dups {
			out = append(out, job{kind: jobTrack, path: "/api/track", body: pick(g, events)})
		}
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
