package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/cadence.report/internal/db"
	"github.com/banshee-data/cadence.report/internal/httputil"
	"github.com/banshee-data/cadence.report/internal/pose"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/version"
)

const (
	defaultSessionsLimit = 20
	maxSessionsLimit     = 500
)

type startResponse struct {
	SessionID string              `json:"session_id"`
	StartTime time.Time           `json:"start_time"`
	Profile   profile.UserProfile `json:"profile"`
}

// startSession begins a new session, discarding any active one. An optional
// JSON profile body replaces the runner profile first.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var (
		p       profile.UserProfile
		hasBody bool
	)
	if err := httputil.DecodeJSON(w, r, &p); err != nil {
		if !errors.Is(err, httputil.ErrEmptyBody) {
			httputil.BadRequest(w, err.Error())
			return
		}
	} else {
		hasBody = true
	}
	if hasBody {
		np, err := profile.Normalize(p)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		p = np
	}

	var resp startResponse
	s.withTracker(func(t *tracker.Tracker) {
		if hasBody {
			t.SetProfile(p)
		}
		resp.SessionID, resp.StartTime = t.StartSession()
		resp.Profile = t.Profile()
	})
	httputil.WriteJSONOK(w, resp)
}

// processFrame runs one keypoint frame through the tracker.
func (s *Server) processFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var f pose.Frame
	if err := httputil.DecodeJSON(w, r, &f); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var (
		res    tracker.Result
		id     string
		active bool
	)
	s.withTracker(func(t *tracker.Tracker) {
		if active = t.Active(); !active {
			return
		}
		res = t.UpdateMetrics(f)
		id = t.SessionID()
	})
	if !active {
		httputil.WriteJSONError(w, http.StatusConflict, "no active session")
		return
	}
	if s.pub != nil {
		if err := s.pub.PublishFrame(id, res); err != nil {
			log.Printf("failed to publish frame: %v", err)
		}
	}
	httputil.WriteJSONOK(w, newFrameResponse(id, res, unit))
}

// showSession returns the live view of the active session.
func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var (
		snap tracker.Snapshot
		ok   bool
	)
	s.withTracker(func(t *tracker.Tracker) { snap, ok = t.Snapshot() })
	if !ok {
		httputil.NotFound(w, "no active session")
		return
	}
	httputil.WriteJSONOK(w, newSnapshotResponse(snap, unit))
}

// endSession finishes the active session and returns its summary. The
// summary is stored and published when those are configured.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var (
		sum     session.Summary
		metrics []session.FrameMetrics
		ok      bool
	)
	s.withTracker(func(t *tracker.Tracker) {
		metrics = t.Metrics()
		sum, ok = t.EndSession()
	})
	if !ok {
		httputil.NoContent(w)
		return
	}

	resp := newSummaryResponse(sum, unit)
	if s.store != nil {
		stored := true
		if err := s.store.RecordSession(r.Context(), sum, metrics); err != nil {
			log.Printf("failed to store session %s: %v", sum.ID, err)
			stored = false
		}
		resp.Stored = &stored
	}
	if s.pub != nil {
		if err := s.pub.PublishSummary(sum); err != nil {
			log.Printf("failed to publish summary: %v", err)
		}
	}
	httputil.WriteJSONOK(w, resp)
}

// listSessions returns stored summaries, newest first.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	limit := defaultSessionsLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > maxSessionsLimit {
			httputil.BadRequest(w, fmt.Sprintf("Invalid 'limit' parameter, must be 1-%d", maxSessionsLimit))
			return
		}
		limit = n
	}

	sums, err := s.store.RecentSessions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	out := make([]summaryResponse, len(sums))
	for i, sum := range sums {
		out[i] = newSummaryResponse(sum, unit)
	}
	httputil.WriteJSONOK(w, out)
}

// getSession returns one stored summary.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sum, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve session: %v", err))
		return
	}
	httputil.WriteJSONOK(w, newSummaryResponse(sum, unit))
}

// profile reads or replaces the runner profile.
func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var p profile.UserProfile
		s.withTracker(func(t *tracker.Tracker) { p = t.Profile() })
		httputil.WriteJSONOK(w, p)
	case http.MethodPut:
		var p profile.UserProfile
		if err := httputil.DecodeJSON(w, r, &p); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		p, err := profile.Normalize(p)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		s.withTracker(func(t *tracker.Tracker) { t.SetProfile(p) })
		httputil.WriteJSONOK(w, p)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	config := map[string]interface{}{"units": s.units}
	s.withTracker(func(t *tracker.Tracker) {
		config["tuning"] = t.Tuning()
		config["profile"] = t.Profile()
	})
	httputil.WriteJSONOK(w, config)
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
