// Package report renders a finished session's metrics as a PNG chart.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/units"
)

// ErrNoMetrics is returned when there is nothing to plot.
var ErrNoMetrics = errors.New("session has no metrics to plot")

const (
	chartWidth  = 12 * vg.Inch
	panelHeight = 3 * vg.Inch
)

var (
	speedColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	cadenceColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	oscColor     = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

type panel struct {
	title, ylabel string
	color         color.Color
	value         func(session.FrameMetrics) float64
}

// WritePNG draws speed, cadence and vertical oscillation against elapsed time
// as stacked panels. Speeds are shown in unit (see package units).
func WritePNG(w io.Writer, s session.Summary, ms []session.FrameMetrics, unit string) error {
	if len(ms) == 0 {
		return ErrNoMetrics
	}
	if !units.IsValid(unit) {
		unit = units.MPS
	}
	start := s.StartTime
	if start.IsZero() {
		start = ms[0].Timestamp
	}

	panels := []panel{
		{"Speed", units.SpeedLabel(unit), speedColor, func(m session.FrameMetrics) float64 {
			return units.ConvertSpeed(m.Speed, unit)
		}},
		{"Cadence", "steps/min", cadenceColor, func(m session.FrameMetrics) float64 { return m.Cadence }},
		{"Vertical oscillation", "cm", oscColor, func(m session.FrameMetrics) float64 {
			return m.VerticalOscillation * 100
		}},
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		pts := make(plotter.XYs, len(ms))
		for j, m := range ms {
			pts[j] = plotter.XY{X: m.Timestamp.Sub(start).Seconds(), Y: pn.value(m)}
		}
		p := plot.New()
		p.Title.Text = pn.title
		p.Y.Label.Text = pn.ylabel
		if i == len(panels)-1 {
			p.X.Label.Text = "Elapsed (s)"
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", pn.title, err)
		}
		line.Color = pn.color
		line.Width = vg.Points(1)
		p.Add(line, plotter.NewGrid())
		plots[i] = []*plot.Plot{p}
	}
	plots[0][0].Title.Text = fmt.Sprintf("Session %s: %s, %d steps",
		shortID(s.ID), units.Distance(s.TotalDistance), s.StepsCount)

	img := vgimg.New(chartWidth, panelHeight*vg.Length(len(panels)))
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: len(panels), Cols: 1, PadY: vg.Millimeter * 2, PadTop: vg.Millimeter, PadBottom: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes the chart to path.
func SavePNG(path string, s session.Summary, ms []session.FrameMetrics, unit string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return WritePNG(f, s, ms, unit)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
