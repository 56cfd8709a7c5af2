package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	t.Parallel()

	r := NewRing[float64](3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.Push(v)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{3, 4, 5}, r.Values())
	assert.Equal(t, []float64{4, 5}, r.Last(2))
	assert.Equal(t, []float64{3, 4, 5}, r.Last(10))
	assert.Nil(t, r.Last(0))
}

func TestRingReset(t *testing.T) {
	t.Parallel()

	r := NewRing[int](2)
	r.Push(1)
	r.Push(2)
	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 2, r.Cap())
	r.Push(7)
	assert.Equal(t, []int{7}, r.Values())
}

func TestRingZeroCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{2}, r.Values())
}

func TestHistoryBounded(t *testing.T) {
	t.Parallel()

	h := NewHistory(30)
	for i := 0; i < 45; i++ {
		h.Append(LeftAnkle, Point{X: float64(i), Y: float64(i)})
	}
	assert.Equal(t, 30, h.Len(LeftAnkle))
	assert.Equal(t, 0, h.Len(RightAnkle))

	last := h.Last(LeftAnkle, 2)
	assert.Equal(t, []Point{{X: 43, Y: 43}, {X: 44, Y: 44}}, last)
	assert.Equal(t, []float64{42, 43, 44}, h.LastY(LeftAnkle, 3))
}

func TestHistoryReady(t *testing.T) {
	t.Parallel()

	h := NewHistory(30)
	for i := 0; i < 4; i++ {
		h.AppendAll(Keypoints{LeftKnee: {Y: float64(i)}, RightKnee: {Y: float64(i)}})
	}
	assert.False(t, h.Tracking(Knees, 5))
	h.Append(RightKnee, Point{})
	assert.True(t, h.Tracking(Knees, 5))
	assert.False(t, h.Tracking(Ankles, 5))

	h.Reset()
	assert.Equal(t, 0, h.Len(RightKnee))
}

func TestHistoryStaleJoints(t *testing.T) {
	t.Parallel()

	h := NewHistory(30)
	for i := 0; i < 5; i++ {
		h.AppendAll(Keypoints{RightAnkle: {Y: float64(100 + i)}, LeftWrist: {Y: 250}})
	}
	assert.True(t, h.Current(RightAnkle))
	assert.True(t, h.Tracking(Ankles, 5))

	h.AppendAll(Keypoints{LeftWrist: {Y: 250}})
	assert.False(t, h.Current(RightAnkle))
	assert.False(t, h.Tracking(Ankles, 5))
	assert.Equal(t, 5, h.Len(RightAnkle), "stale buffer is kept")
	assert.True(t, h.Tracking(Wrists, 5))

	h.AppendAll(Keypoints{RightAnkle: {Y: 110}})
	assert.True(t, h.Tracking(Ankles, 5))
	assert.False(t, h.Current(LeftWrist))
	assert.False(t, h.Current(LeftKnee), "never seen")

	h.Reset()
	assert.False(t, h.Current(RightAnkle))
}

func TestHistoryIgnoresInvalidJoint(t *testing.T) {
	t.Parallel()

	h := NewHistory(5)
	h.Append(Joint(99), Point{X: 1})
	assert.Equal(t, 0, h.Len(Joint(99)))
	assert.Nil(t, h.Last(Joint(99), 3))
}
