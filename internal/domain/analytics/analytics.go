// Package analytics models visitor tracking events and the sink that counts
// them.
package analytics

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Kind is the type of visitor interaction.
type Kind string

// Tracked kinds.
const (
	KindPageView      Kind = "page_view"
	KindClick         Kind = "click"
	KindFormStart     Kind = "form_start"
	KindFormSubmit    Kind = "form_submit"
	KindCalculatorUse Kind = "calculator_use"
)

// Kinds lists every accepted kind.
func Kinds() []Kind {
	return []Kind{KindPageView, KindClick, KindFormStart, KindFormSubmit, KindCalculatorUse}
}

const (
	maxPathLen  = 512
	maxLabelLen = 128
)

// Validation errors.
var (
	ErrMissingEventID = errors.New("event_id is required")
	ErrMissingSession = errors.New("session_id is required")
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrFieldTooLong   = errors.New("field too long")
)

// Event is one visitor interaction reported by the browser.
type Event struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	Kind      Kind      `json:"kind"`
	Path      string    `json:"path"`
	Label     string    `json:"label,omitempty"`
	TS        time.Time `json:"ts"`
}

// Validate checks the required fields and the kind.
func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return ErrMissingEventID
	case strings.TrimSpace(e.SessionID) == "":
		return ErrMissingSession
	case !e.Kind.Valid():
		return ErrUnknownKind
	case len(e.Path) > maxPathLen || len(e.Label) > maxLabelLen:
		return ErrFieldTooLong
	}
	return nil
}

// Valid reports whether k is a tracked kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Counters are running totals over recorded events.
type Counters struct {
	Total    int64            `json:"total"`
	Sessions int64            `json:"sessions"`
	ByKind   map[Kind]int64   `json:"by_kind"`
	ByPath   map[string]int64 `json:"by_path"`
}

// NewCounters returns zeroed counters with initialized maps.
func NewCounters() Counters {
	return Counters{ByKind: map[Kind]int64{}, ByPath: map[string]int64{}}
}

// Sink receives processed events. Implementations must be safe for
// concurrent use.
type Sink interface {
	RecordEvent(ctx context.Context, e Event) error
	Counters(ctx context.Context) (Counters, error)
}
