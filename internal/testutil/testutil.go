// Package testutil provides shared test helpers and synthetic keypoint
// fixtures.
package testutil

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/cadence.report/internal/pose"
)

// FrameWidth and FrameHeight are the dimensions of synthetic frames.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewJSONRequest builds a request with body encoded as JSON. A nil body sends
// no payload.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Frame wraps keypoints in a frame of the standard synthetic size.
func Frame(kp pose.Keypoints) pose.Frame {
	return pose.Frame{Width: FrameWidth, Height: FrameHeight, Keypoints: kp}
}

// Standing returns a full-body pose of a subject standing still.
func Standing() pose.Keypoints {
	return pose.Keypoints{
		pose.LeftWrist:  {X: 290, Y: 250},
		pose.RightWrist: {X: 350, Y: 250},
		pose.LeftHip:    {X: 305, Y: 240},
		pose.RightHip:   {X: 335, Y: 240},
		pose.LeftKnee:   {X: 305, Y: 330},
		pose.RightKnee:  {X: 335, Y: 330},
		pose.LeftAnkle:  {X: 305, Y: 420},
		pose.RightAnkle: {X: 335, Y: 420},
	}
}

// Shift returns a copy of kp with every joint moved by (dx, dy).
func Shift(kp pose.Keypoints, dx, dy float64) pose.Keypoints {
	out := make(pose.Keypoints, len(kp))
	for j, p := range kp {
		out[j] = pose.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Only returns a copy of kp restricted to the given joints.
func Only(kp pose.Keypoints, joints ...pose.Joint) pose.Keypoints {
	out := make(pose.Keypoints, len(joints))
	for _, j := range joints {
		if p, ok := kp[j]; ok {
			out[j] = p
		}
	}
	return out
}

// Gait parameterises a synthetic runner.
type Gait struct {
	// PeriodFrames is the number of frames per full gait cycle.
	PeriodFrames float64
	// DriftPx is the horizontal travel per frame.
	DriftPx float64
	// SwingPx is the vertical amplitude of ankles, knees and wrists.
	SwingPx float64
	// BouncePx is the vertical amplitude of the hips.
	BouncePx float64
}

// DefaultGait is a moderate jog at 10 fps.
var DefaultGait = Gait{PeriodFrames: 12, DriftPx: 12, SwingPx: 18, BouncePx: 4}

// Running returns frame i of a synthetic runner. Left and right limbs swing in
// opposite phase and arms counter-swing the legs.
func Running(i int, g Gait) pose.Keypoints {
	phase := 2 * math.Pi * float64(i) / g.PeriodFrames
	s := math.Sin(phase)
	bounce := g.BouncePx * math.Sin(2*phase)
	kp := Shift(Standing(), g.DriftPx*float64(i), 0)
	move := func(j pose.Joint, dy float64) {
		p := kp[j]
		p.Y += dy
		kp[j] = p
	}
	move(pose.LeftAnkle, g.SwingPx*s)
	move(pose.RightAnkle, -g.SwingPx*s)
	move(pose.LeftKnee, 0.6*g.SwingPx*s)
	move(pose.RightKnee, -0.6*g.SwingPx*s)
	move(pose.LeftWrist, -g.SwingPx*s)
	move(pose.RightWrist, g.SwingPx*s)
	move(pose.LeftHip, bounce)
	move(pose.RightHip, bounce)
	return kp
}
