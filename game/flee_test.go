package game

import (
	"math"
	"testing"
)

func TestDuckPanicsAndFleesFromNearbyPlayer(t *testing.T) {
	s := newTestState()
	p := s.AddPlayer("p1", "")
	p.Pos = Vec{400, 400}
	d := addDuck(s, "#ff0000", 430, 400)

	Step(s, 1000)
	if want := 1000 + s.Tuning.PanicCooldownMs; d.PanicUntil != want {
		t.Fatalf("panicUntil = %d, want %d", d.PanicUntil, want)
	}
	if d.Vel.X <= 0 {
		t.Fatalf("expected duck to flee in +x, vel = %+v", d.Vel)
	}
	if d.Vel.Len() > s.Tuning.FleeAccel+1e-9 {
		t.Fatalf("flee velocity snapped to %+v, want bounded acceleration", d.Vel)
	}
}

func TestPanicUntilIsMonotonic(t *testing.T) {
	s := newTestState()
	p := s.AddPlayer("p1", "")
	p.Pos = Vec{400, 400}
	d := addDuck(s, "#ff0000", 420, 400)

	last := int64(0)
	now := int64(1000)
	for i := 0; i < 120; i++ {
		// player wanders in and out of range
		if i%20 < 10 {
			p.Pos = Vec{d.Pos.X - 30, d.Pos.Y}
		} else {
			p.Pos = Vec{20, 20}
		}
		Step(s, now)
		if d.PanicUntil < last {
			t.Fatalf("tick %d: panicUntil decreased from %d to %d", i, last, d.PanicUntil)
		}
		last = d.PanicUntil
		now += 16
	}
}

func TestFleeFromCentroidWhenRepulsionCancels(t *testing.T) {
	s := newTestState()
	a := s.AddPlayer("a", "")
	b := s.AddPlayer("b", "")
	c := s.AddPlayer("c", "")
	a.Pos = Vec{340, 400}
	b.Pos = Vec{460, 400}
	c.Pos = Vec{400, 100} // out of range, pulls the centroid up
	d := addDuck(s, "#ff0000", 400, 400)

	Step(s, 1000)
	if !d.Panicking(1000) {
		t.Fatalf("duck should be panicking")
	}
	if d.Vel.Y <= 0 {
		t.Fatalf("expected duck to flee away from the player centroid (+y), vel = %+v", d.Vel)
	}
	if math.Abs(d.Vel.X) > 1e-9 {
		t.Fatalf("expected no x component, vel = %+v", d.Vel)
	}
}

func TestFleeWithCoincidentPlayerStaysFinite(t *testing.T) {
	s := newTestState()
	p := s.AddPlayer("p1", "")
	p.Pos = Vec{400, 400}
	d := addDuck(s, "#ff0000", 400, 400)

	Step(s, 1000)
	if !d.Pos.Finite() || !d.Vel.Finite() {
		t.Fatalf("degenerate geometry produced non-finite duck: pos=%+v vel=%+v", d.Pos, d.Vel)
	}
	if d.Vel.Len() == 0 {
		t.Fatalf("expected duck to pick a neutral flee direction")
	}
}

func TestFleeSpeedEasesWithDistance(t *testing.T) {
	tu := DefaultTuning()
	near := fleeSpeed(0, tu)
	mid := fleeSpeed(tu.PanicRadius/2, tu)
	far := fleeSpeed(tu.PanicRadius*2, tu)
	if near != tu.FleeMaxSpeed {
		t.Fatalf("speed at distance 0 = %f, want %f", near, tu.FleeMaxSpeed)
	}
	if far != tu.FleeMinSpeed {
		t.Fatalf("speed outside radius = %f, want %f", far, tu.FleeMinSpeed)
	}
	if !(far < mid && mid < near) {
		t.Fatalf("expected monotonic easing: far=%f mid=%f near=%f", far, mid, near)
	}
}
