// Package api is the HTTP surface the dashboard polls. It owns the tracker
// and serializes every call into it.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/cadence.report/internal/emitter"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/units"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Store persists finished sessions. *db.DB implements it.
type Store interface {
	RecordSession(ctx context.Context, s session.Summary, metrics []session.FrameMetrics) error
	GetSession(ctx context.Context, id string) (session.Summary, error)
	RecentSessions(ctx context.Context, limit int) ([]session.Summary, error)
	SessionMetrics(ctx context.Context, id string) ([]session.FrameMetrics, error)
}

// Server wires HTTP handlers to a tracker, an optional store and an optional
// publisher.
type Server struct {
	mu      sync.Mutex // guards tracker
	tracker *tracker.Tracker

	store Store
	pub   emitter.Publisher
	units string
}

// NewServer returns a server. store and pub may be nil.
func NewServer(t *tracker.Tracker, store Store, pub emitter.Publisher, unit string) *Server {
	if !units.IsValid(unit) {
		unit = units.MPS
	}
	return &Server{
		tracker: t,
		store:   store,
		pub:     pub,
		units:   unit,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/start", s.startSession)
	mux.HandleFunc("/api/session/end", s.endSession)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/session/chart", s.sessionChart)
	mux.HandleFunc("/api/frames", s.processFrame)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("GET /api/sessions/{id}/chart.png", s.sessionPNG)
	mux.HandleFunc("/api/profile", s.profile)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	return mux
}

// withTracker runs fn while holding the tracker lock.
func (s *Server) withTracker(fn func(t *tracker.Tracker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tracker)
}
