package api

import (
	"fmt"
	"net/http"

	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/units"
)

// requestUnits returns the ?units= override or the server default.
func (s *Server) requestUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid 'units' parameter, must be one of: %s", units.GetValidUnitsString())
	}
	return u, nil
}

// convertFrameMetrics converts the speed-valued fields of m. Pace is always
// computed from m/s.
func convertFrameMetrics(m session.FrameMetrics, unit string) session.FrameMetrics {
	m.Speed = units.ConvertSpeed(m.Speed, unit)
	m.ArmMovement = units.ConvertSpeed(m.ArmMovement, unit)
	m.LegMovement = units.ConvertSpeed(m.LegMovement, unit)
	return m
}

func convertAverages(a session.Averages, unit string) session.Averages {
	a.Speed = units.ConvertSpeed(a.Speed, unit)
	a.ArmMovement = units.ConvertSpeed(a.ArmMovement, unit)
	a.LegMovement = units.ConvertSpeed(a.LegMovement, unit)
	return a
}

// summaryResponse is a Summary in display units.
type summaryResponse struct {
	session.Summary
	Units        string `json:"units"`
	AveragePace  string `json:"average_pace"`
	DistanceText string `json:"distance_text"`
	Stored       *bool  `json:"stored,omitempty"`
}

func newSummaryResponse(sum session.Summary, unit string) summaryResponse {
	resp := summaryResponse{
		Units:        unit,
		AveragePace:  units.Pace(sum.AverageMetrics.Speed),
		DistanceText: units.Distance(sum.TotalDistance),
	}
	sum.MaxSpeed = units.ConvertSpeed(sum.MaxSpeed, unit)
	sum.AverageMetrics = convertAverages(sum.AverageMetrics, unit)
	resp.Summary = sum
	return resp
}

// frameResponse is a tracker Result in display units.
type frameResponse struct {
	SessionID string `json:"session_id,omitempty"`
	tracker.Result
	Units string `json:"units"`
	Pace  string `json:"pace,omitempty"`
}

func newFrameResponse(id string, r tracker.Result, unit string) frameResponse {
	resp := frameResponse{SessionID: id, Units: unit}
	if r.Metrics != nil {
		resp.Pace = units.Pace(r.Metrics.Speed)
		m := convertFrameMetrics(*r.Metrics, unit)
		r.Metrics = &m
	}
	resp.Result = r
	return resp
}

// snapshotResponse is a live Snapshot in display units.
type snapshotResponse struct {
	tracker.Snapshot
	Units        string `json:"units"`
	Pace         string `json:"pace"`
	DistanceText string `json:"distance_text"`
}

func newSnapshotResponse(snap tracker.Snapshot, unit string) snapshotResponse {
	resp := snapshotResponse{
		Units:        unit,
		Pace:         units.Pace(0),
		DistanceText: units.Distance(snap.TotalDistance),
	}
	if snap.Latest != nil {
		resp.Pace = units.Pace(snap.Latest.Speed)
		m := convertFrameMetrics(*snap.Latest, unit)
		snap.Latest = &m
	}
	snap.MaxSpeed = units.ConvertSpeed(snap.MaxSpeed, unit)
	resp.Snapshot = snap
	return resp
}
