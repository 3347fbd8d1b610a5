package game

import "math"

// Input is one velocity sample sent by a client, in pixels per tick.
type Input struct {
	VX, VY float64
}

func (in Input) Finite() bool {
	return Vec{in.VX, in.VY}.Finite()
}

// InputQueue is a lossy FIFO holding the most recent samples only. When
// full the oldest sample is evicted.
type InputQueue struct {
	buf  [InputQueueSize]Input
	head int
	n    int
}

func (q *InputQueue) Push(in Input) {
	if q.n == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.n--
	}
	q.buf[(q.head+q.n)%len(q.buf)] = in
	q.n++
}

// Latest pops the freshest sample and discards everything older.
func (q *InputQueue) Latest() (Input, bool) {
	if q.n == 0 {
		return Input{}, false
	}
	in := q.buf[(q.head+q.n-1)%len(q.buf)]
	q.head, q.n = 0, 0
	return in, true
}

func (q *InputQueue) Len() int { return q.n }

// Sanitize returns the velocity to apply for a sample. ok is false when the
// sample is not finite and must be ignored.
func Sanitize(in Input, maxSpeed, eps float64) (Vec, bool) {
	if !in.Finite() {
		return Vec{}, false
	}
	v := Vec{in.VX, in.VY}
	mag := v.Len()
	if math.IsInf(mag, 0) {
		// components are finite but their hypot overflows
		u, _ := v.Scale(1 / math.Max(math.Abs(v.X), math.Abs(v.Y))).Normalize()
		return u.Scale(maxSpeed), true
	}
	switch {
	case mag > maxSpeed:
		v = v.Scale(maxSpeed / mag)
	case mag < eps:
		v = Vec{}
	}
	return v, true
}

// ClampToWorld hard clamps p to the world rectangle.
func ClampToWorld(p Vec, t Tuning) Vec {
	return Vec{clamp(p.X, 0, t.Width), clamp(p.Y, 0, t.Height)}
}
