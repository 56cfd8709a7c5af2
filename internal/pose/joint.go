package pose

import (
	"encoding/json"
	"fmt"
)

// Joint identifies one tracked anatomical landmark.
type Joint int

const (
	LeftWrist Joint = iota
	RightWrist
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHip
	RightHip

	NumJoints = 8
)

var jointNames = [NumJoints]string{
	LeftWrist:  "left_wrist",
	RightWrist: "right_wrist",
	LeftKnee:   "left_knee",
	RightKnee:  "right_knee",
	LeftAnkle:  "left_ankle",
	RightAnkle: "right_ankle",
	LeftHip:    "left_hip",
	RightHip:   "right_hip",
}

// AllJoints lists every joint in index order.
var AllJoints = [NumJoints]Joint{LeftWrist, RightWrist, LeftKnee, RightKnee, LeftAnkle, RightAnkle, LeftHip, RightHip}

// Valid reports whether j is one of the enumerated joints.
func (j Joint) Valid() bool {
	return j >= 0 && j < NumJoints
}

func (j Joint) String() string {
	if !j.Valid() {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint maps a wire name such as "left_ankle" to its Joint.
func ParseJoint(name string) (Joint, error) {
	for j, n := range jointNames {
		if n == name {
			return Joint(j), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", name)
}

// MarshalText implements encoding.TextMarshaler so Joint can key JSON objects.
func (j Joint) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("invalid joint %d", int(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Joint) UnmarshalText(b []byte) error {
	parsed, err := ParseJoint(string(b))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// Group is a left/right joint pair used as one signal source.
type Group struct {
	Name  string
	Left  Joint
	Right Joint
}

// Joint groups, in step-detection priority order.
var (
	Ankles = Group{Name: "ankle", Left: LeftAnkle, Right: RightAnkle}
	Knees  = Group{Name: "knee", Left: LeftKnee, Right: RightKnee}
	Wrists = Group{Name: "wrist", Left: LeftWrist, Right: RightWrist}
	Hips   = Group{Name: "hip", Left: LeftHip, Right: RightHip}
)

// Limbs are the groups that carry speed and step signal. Hips only feed the
// vertical oscillation estimate.
var Limbs = []Group{Ankles, Knees, Wrists}

// Point is a pixel position in image coordinates (y grows downwards).
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes a Point as a two-element [x, y] array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON accepts either [x, y] or {"x": .., "y": ..}.
func (p *Point) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("point must have 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("point must be [x, y] or {x, y}: %w", err)
	}
	if obj.X == nil || obj.Y == nil {
		return fmt.Errorf("point object requires both x and y")
	}
	p.X, p.Y = *obj.X, *obj.Y
	return nil
}

// Keypoints maps each detected joint to its pixel position for one frame.
// Absent joints are simply omitted.
type Keypoints map[Joint]Point

// HasAny reports whether any joint of the given groups is present.
func (k Keypoints) HasAny(groups ...Group) bool {
	for _, g := range groups {
		if _, ok := k[g.Left]; ok {
			return true
		}
		if _, ok := k[g.Right]; ok {
			return true
		}
	}
	return false
}

// Frame is one frame's worth of input to the tracker.
type Frame struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Keypoints Keypoints `json:"keypoints"`
}
