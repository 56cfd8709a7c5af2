package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/cadence.report/internal/db"
	"github.com/banshee-data/cadence.report/internal/httputil"
	"github.com/banshee-data/cadence.report/internal/report"
	"github.com/banshee-data/cadence.report/internal/security"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/units"
)

// loadMetrics returns the active session's metrics, or the stored session's
// when id is set.
func (s *Server) loadMetrics(r *http.Request, id string) (session.Summary, []session.FrameMetrics, error) {
	if id == "" {
		var (
			snap tracker.Snapshot
			ms   []session.FrameMetrics
			ok   bool
		)
		s.withTracker(func(t *tracker.Tracker) {
			snap, ok = t.Snapshot()
			ms = t.Metrics()
		})
		if !ok {
			return session.Summary{}, nil, db.ErrSessionNotFound
		}
		return session.Summary{
			ID:            snap.SessionID,
			StartTime:     snap.StartTime,
			TotalDistance: snap.TotalDistance,
			StepsCount:    snap.StepsCount,
		}, ms, nil
	}
	if s.store == nil {
		return session.Summary{}, nil, db.ErrSessionNotFound
	}
	sum, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		return session.Summary{}, nil, err
	}
	ms, err := s.store.SessionMetrics(r.Context(), id)
	return sum, ms, err
}

func writeLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, "session not found")
		return
	}
	httputil.InternalServerError(w, fmt.Sprintf("Failed to load session: %v", err))
}

// sessionChart renders speed and cadence over elapsed time as an HTML line
// chart. ?id= selects a stored session instead of the active one.
func (s *Server) sessionChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sum, ms, err := s.loadMetrics(r, r.URL.Query().Get("id"))
	if err != nil {
		writeLoadError(w, err)
		return
	}

	x := make([]string, len(ms))
	speed := make([]opts.LineData, len(ms))
	cadence := make([]opts.LineData, len(ms))
	for i, m := range ms {
		x[i] = strconv.FormatFloat(m.Timestamp.Sub(sum.StartTime).Seconds(), 'f', 1, 64)
		speed[i] = opts.LineData{Value: units.ConvertSpeed(m.Speed, unit)}
		cadence[i] = opts.LineData{Value: m.Cadence}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Running session", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed and cadence",
			Subtitle: fmt.Sprintf("session=%s distance=%s steps=%d", sum.ID, units.Distance(sum.TotalDistance), sum.StepsCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (" + units.SpeedLabel(unit) + ")"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Cadence (spm)", Position: "right"})
	line.SetXAxis(x).
		AddSeries("speed", speed, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})).
		AddSeries("cadence", cadence, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), YAxisIndex: 1}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// sessionPNG renders a stored session's metrics as a PNG.
func (s *Server) sessionPNG(w http.ResponseWriter, r *http.Request) {
	unit, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sum, ms, err := s.loadMetrics(r, r.PathValue("id"))
	if err != nil {
		writeLoadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WritePNG(&buf, sum, ms, unit); err != nil {
		if errors.Is(err, report.ErrNoMetrics) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline; filename="+security.SessionFilename(sum.ID, "png"))
	w.Write(buf.Bytes())
}
