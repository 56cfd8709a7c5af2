// Command replay runs a recorded keypoint stream through the tracker offline.
//
// The input is JSONL, one frame per line:
//
//	{"t": 0.1, "width": 640, "height": 480, "keypoints": {"left_ankle": [305, 420], ...}}
//
// Usage:
//
//	go run ./cmd/tools/replay -in run.jsonl [-plot run.png] [-db cadence.db]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/db"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/report"
	"github.com/banshee-data/cadence.report/internal/security"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/units"
)

func main() {
	in := flag.String("in", "", "JSONL recording (- for stdin)")
	configPath := flag.String("config", "", "Tuning config JSON")
	profilePath := flag.String("profile", "", "Runner profile YAML")
	plotPath := flag.String("plot", "", "Write a PNG chart of the session")
	dbPath := flag.String("db", "", "Store the replayed session in this SQLite database")
	unit := flag.String("units", units.MPS, "Chart speed units: "+units.GetValidUnitsString())
	trace := flag.Bool("trace", false, "Print per-frame tracker trace to stderr")
	flag.Parse()

	if *in == "" {
		log.Fatal("Error: -in flag is required")
	}
	for _, out := range []string{*plotPath, *dbPath} {
		if out == "" {
			continue
		}
		if err := security.ValidateExportPath(out); err != nil {
			log.Fatalf("Invalid output path: %v", err)
		}
	}
	if *trace {
		tracker.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}
	p := profile.Default()
	if *profilePath != "" {
		var err error
		if p, err = profile.Load(*profilePath); err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
	}

	var r io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		defer f.Close()
		r = f
	}
	records, err := ReadRecords(r)
	if err != nil {
		log.Fatalf("Failed to parse recording: %v", err)
	}
	log.Printf("Replaying %d frames", len(records))

	out := Replay(records, tuning, p)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write summary: %v", err)
	}

	if *plotPath != "" {
		if err := report.SavePNG(*plotPath, out.Summary, out.Metrics, *unit); err != nil {
			log.Fatalf("Failed to write chart: %v", err)
		}
		log.Printf("Chart written to %s", *plotPath)
	}

	if *dbPath != "" {
		store, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		if err := store.RecordSession(context.Background(), out.Summary, out.Metrics); err != nil {
			log.Fatalf("Failed to store session: %v", err)
		}
		log.Printf("Session %s stored in %s", out.Summary.ID, *dbPath)
	}
}
