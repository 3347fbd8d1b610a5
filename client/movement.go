package client

import (
	"math"

	"quack/game"
)

type PointerMode int

const (
	// PointerAbsolute follows the pointer's world position.
	PointerAbsolute PointerMode = iota
	// PointerCaptured accumulates relative motion into a virtual cursor.
	PointerCaptured
)

// Movement predicts the local player's position from pointer input. Pos
// and Vel are the predicted state; the reconciler corrects them.
type Movement struct {
	Tuning Tuning
	Mode   PointerMode

	Pos game.Vec
	Vel game.Vec

	raw    game.Vec
	target game.Vec
	seeded bool
	active bool
}

func NewMovement(t Tuning, start game.Vec) *Movement {
	return &Movement{Tuning: t, Pos: start, raw: start}
}

// SetActive starts or stops following the pointer. Stopping discards any
// velocity.
func (m *Movement) SetActive(active bool) {
	if active == m.active {
		return
	}
	m.active = active
	m.seeded = false
	if !active {
		m.Vel = game.Vec{}
		return
	}
	if m.Mode == PointerCaptured {
		m.raw = m.Pos
	}
}

func (m *Movement) Active() bool { return m.active }

// PointerAt records an absolute pointer position in world space.
func (m *Movement) PointerAt(p game.Vec) {
	if !p.Finite() {
		return
	}
	m.raw = p
}

// PointerDelta moves the captured virtual cursor by d.
func (m *Movement) PointerDelta(d game.Vec) {
	if !d.Finite() {
		return
	}
	m.raw = m.Tuning.clampToWorld(m.raw.Add(d))
}

// Target is the smoothed point the player is steering towards.
func (m *Movement) Target() game.Vec { return m.target }

// Step advances the prediction by one tick and returns the velocity that
// should be sent to the server for this tick.
func (m *Movement) Step() game.Vec {
	if !m.active {
		m.Vel = game.Vec{}
		return m.Vel
	}
	t := m.Tuning
	if !m.seeded {
		m.target = m.raw
		m.seeded = true
	} else {
		m.target = m.target.Lerp(m.raw, t.TargetAlpha)
	}

	desired := game.Vec{}
	toTarget := m.target.Sub(m.Pos)
	if dist := toTarget.Len(); dist > t.DeadZone {
		if dir, ok := toTarget.Normalize(); ok {
			desired = dir.Scale(math.Min(t.MaxSpeed, dist*t.FollowGain))
		}
	}
	m.Vel = m.Vel.Lerp(desired, t.VelocityAlpha)
	m.Pos = t.clampToWorld(m.Pos.Add(m.Vel))
	return m.Vel
}
