package api

import (
	"net/http"
	"time"

	"github.com/okian/fundineed/internal/domain/analytics"
)

// TrackingHandler accepts visitor events from the site.
type TrackingHandler struct {
	deps TrackingDependencies
	dec  decoder
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(deps TrackingDependencies, dec decoder) *TrackingHandler {
	return &TrackingHandler{deps: deps, dec: dec}
}

type trackRequest struct {
	EventID   string         `json:"event_id"`
	SessionID string         `json:"session_id"`
	Kind      analytics.Kind `json:"kind"`
	Path      string         `json:"path"`
	Label     string         `json:"label"`
	TS        *time.Time     `json:"ts"`
}

func (r trackRequest) event() analytics.Event {
	e := analytics.Event{
		EventID:   r.EventID,
		SessionID: r.SessionID,
		Kind:      r.Kind,
		Path:      r.Path,
		Label:     r.Label,
	}
	if r.TS != nil {
		e.TS = r.TS.UTC()
	} else {
		e.TS = time.Now().UTC()
	}
	return e
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandleTrack handles POST /api/track.
func (h *TrackingHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.track"
	var req trackRequest
	if err := h.dec.decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	e := req.event()
	if err := e.Validate(); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), e.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.Enqueue(r.Context(), e); err != nil {
		// Forget the id so the client can retry.
		h.deps.Unrecord(r.Context(), e.EventID)
		writeFailure(w, WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
