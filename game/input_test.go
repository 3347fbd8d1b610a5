package game

import (
	"math"
	"math/rand"
	"testing"
)

func TestInputQueueDropsOldestWhenFull(t *testing.T) {
	var q InputQueue
	for i := 1; i <= 6; i++ {
		q.Push(Input{VX: float64(i)})
	}
	if q.Len() != InputQueueSize {
		t.Fatalf("len = %d, want %d", q.Len(), InputQueueSize)
	}
	in, ok := q.Latest()
	if !ok || in.VX != 6 {
		t.Fatalf("latest = %+v ok=%v, want VX=6", in, ok)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after Latest, len = %d", q.Len())
	}
	if _, ok := q.Latest(); ok {
		t.Fatalf("expected empty queue to report no input")
	}
}

func TestEnqueueInputRejectsNonFinite(t *testing.T) {
	s := newTestState()
	s.AddPlayer("p1", "")
	if s.EnqueueInput("p1", Input{VX: math.NaN()}) {
		t.Fatalf("NaN sample accepted")
	}
	if s.EnqueueInput("ghost", Input{VX: 1}) {
		t.Fatalf("sample for unknown player accepted")
	}
	if !s.EnqueueInput("p1", Input{VX: 1}) {
		t.Fatalf("valid sample rejected")
	}
}

func TestSanitizeNeverAmplifies(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		in := Input{VX: (rng.Float64()*2 - 1) * 1e6, VY: (rng.Float64()*2 - 1) * 1e6}
		if i%3 == 0 {
			in = Input{VX: rng.Float64() * 5, VY: rng.Float64() * 5}
		}
		v, ok := Sanitize(in, MaxSpeedPerTick, 1e-6)
		if !ok {
			t.Fatalf("finite sample %+v rejected", in)
		}
		if v.Len() > MaxSpeedPerTick+1e-9 {
			t.Fatalf("sanitized %+v has length %f > %f", in, v.Len(), MaxSpeedPerTick)
		}
		raw := Vec{in.VX, in.VY}
		if v.Len() > raw.Len()+1e-9 {
			t.Fatalf("sanitize amplified %+v to %+v", in, v)
		}
	}
}

func TestSanitizeEdgeCases(t *testing.T) {
	if _, ok := Sanitize(Input{VX: math.NaN()}, 7, 1e-6); ok {
		t.Fatalf("NaN accepted")
	}
	if v, ok := Sanitize(Input{VX: 1e-9, VY: -1e-9}, 7, 1e-6); !ok || v != (Vec{}) {
		t.Fatalf("sub-epsilon sample = %+v ok=%v, want zero", v, ok)
	}
	v, ok := Sanitize(Input{VX: math.MaxFloat64, VY: math.MaxFloat64}, 7, 1e-6)
	if !ok || math.Abs(v.Len()-7) > 1e-9 {
		t.Fatalf("overflowing sample = %+v ok=%v, want length 7", v, ok)
	}
}

func TestClampToWorldIsIdempotent(t *testing.T) {
	tu := DefaultTuning()
	for _, p := range []Vec{{-5, 10}, {900, 900}, {400, -1}, {10, 10}} {
		once := ClampToWorld(p, tu)
		if twice := ClampToWorld(once, tu); twice != once {
			t.Fatalf("clamp not idempotent for %+v: %+v then %+v", p, once, twice)
		}
		if once.X < 0 || once.X > tu.Width || once.Y < 0 || once.Y > tu.Height {
			t.Fatalf("clamp(%+v) = %+v outside world", p, once)
		}
	}
}
