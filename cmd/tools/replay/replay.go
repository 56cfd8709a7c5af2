package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/pose"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/timeutil"
	"github.com/banshee-data/cadence.report/internal/tracker"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 1 << 20

// epoch anchors recording-relative timestamps.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Record is one line of a keypoint recording: a frame and its capture time in
// seconds from the start of the recording.
type Record struct {
	T float64 `json:"t"`
	pose.Frame
}

// ReadRecords parses a JSONL recording. Blank lines and lines starting with
// '#' are skipped.
func ReadRecords(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		out  []Record
		line int
	)
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.T < 0 {
			return nil, fmt.Errorf("line %d: negative timestamp %g", line, rec.T)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return out, nil
}

// Outcome is the result of replaying a recording.
type Outcome struct {
	Summary  session.Summary        `json:"summary"`
	Statuses map[string]int         `json:"statuses"`
	Frames   int                    `json:"frames"`
	Metrics  []session.FrameMetrics `json:"-"`
}

// Replay runs records through a fresh tracker on a mock clock. The session
// starts at the first record's timestamp.
func Replay(records []Record, tuning *config.TuningConfig, p profile.UserProfile) Outcome {
	out := Outcome{Statuses: map[string]int{}, Frames: len(records)}
	if len(records) == 0 {
		return out
	}
	clock := timeutil.NewMockClock(epoch.Add(timeutil.Seconds(records[0].T)))
	tr := tracker.New(tuning, p, clock)
	tr.StartSession()

	for _, rec := range records {
		clock.Set(epoch.Add(timeutil.Seconds(rec.T)))
		res := tr.UpdateMetrics(rec.Frame)
		switch {
		case res.Status != "":
			out.Statuses[res.Status]++
		default:
			out.Statuses["ok"]++
		}
	}
	out.Metrics = tr.Metrics()
	out.Summary, _ = tr.EndSession()
	return out
}
