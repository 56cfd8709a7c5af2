package pose

// Ring is a fixed-capacity, insertion-ordered buffer
// that evicts its oldest entry on overflow. It backs both the per-joint
// position history and the vertical-oscillation smoothing buffer.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

// NewRing returns an empty ring holding at most capacity entries.
// A non-positive capacity is treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry when full.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the maximum number of entries.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// At returns the i-th entry, oldest first. It panics when i is out of range.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("pose: ring index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last returns up to n of the most recent entries, oldest first.
func (r *Ring[T]) Last(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(r.size - n + i)
	}
	return out
}

// Values returns every entry, oldest first.
func (r *Ring[T]) Values() []T {
	return r.Last(r.size)
}

// Reset empties the ring without releasing its storage.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start = 0
	r.size = 0
}

// History holds one bounded position buffer per joint, indexed by Joint.
// Each AppendAll call is one frame; a joint is current only when that frame
// observed it.
type History struct {
	joints   [NumJoints]*Ring[Point]
	frame    uint64
	lastSeen [NumJoints]uint64
}

// NewHistory allocates a history whose per-joint buffers hold capacity points.
func NewHistory(capacity int) *History {
	h := &History{}
	for i := range h.joints {
		h.joints[i] = NewRing[Point](capacity)
	}
	return h
}

// Append pushes p onto the joint's buffer and marks it seen in the current
// frame. Invalid joints are ignored.
func (h *History) Append(j Joint, p Point) {
	if !j.Valid() {
		return
	}
	h.joints[j].Push(p)
	h.lastSeen[j] = h.frame
}

// AppendAll starts a new frame and appends every keypoint in it.
func (h *History) AppendAll(k Keypoints) {
	h.frame++
	for j, p := range k {
		h.Append(j, p)
	}
}

// Len returns the number of samples held for j.
func (h *History) Len(j Joint) int {
	if !j.Valid() {
		return 0
	}
	return h.joints[j].Len()
}

// Last returns up to n of j's most recent positions, oldest first.
func (h *History) Last(j Joint, n int) []Point {
	if !j.Valid() {
		return nil
	}
	return h.joints[j].Last(n)
}

// LastY returns up to n of j's most recent vertical coordinates, oldest first.
func (h *History) LastY(j Joint, n int) []float64 {
	pts := h.Last(j, n)
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = p.Y
	}
	return ys
}

// Current reports whether j has samples and was observed in the latest frame.
func (h *History) Current(j Joint) bool {
	return h.Len(j) > 0 && h.lastSeen[j] == h.frame
}

// Tracking reports whether a side of g was observed in the latest frame and
// holds at least n samples. Joints that left the frame keep their buffers but
// do not count.
func (h *History) Tracking(g Group, n int) bool {
	return h.tracking(g.Left, n) || h.tracking(g.Right, n)
}

func (h *History) tracking(j Joint, n int) bool {
	return h.Current(j) && h.Len(j) >= n
}

// Reset clears every joint buffer.
func (h *History) Reset() {
	for _, r := range h.joints {
		r.Reset()
	}
	h.frame = 0
	h.lastSeen = [NumJoints]uint64{}
}
