package client

import (
	"quack/game"
	"quack/protocol"
)

// Tuning holds the client side smoothing constants. Distances are pixels,
// speeds are pixels per tick.
type Tuning struct {
	Width, Height float64
	TickHz        int

	MaxSpeed      float64
	DeadZone      float64
	FollowGain    float64
	TargetAlpha   float64 // pointer target low-pass
	VelocityAlpha float64

	ReconcileSmall float64
	ReconcileSnap  float64
	ReconcileAlpha float64

	RemoteAlpha float64
}

func DefaultTuning() Tuning {
	return Tuning{
		Width:  game.WorldWidth,
		Height: game.WorldHeight,
		TickHz: protocol.ClientInputHz,

		MaxSpeed:      game.MaxSpeedPerTick,
		DeadZone:      4,
		FollowGain:    0.25,
		TargetAlpha:   0.25,
		VelocityAlpha: 0.35,

		ReconcileSmall: 1.5,
		ReconcileSnap:  64,
		ReconcileAlpha: 0.12,

		RemoteAlpha: 0.2,
	}
}

func (t Tuning) clampToWorld(p game.Vec) game.Vec {
	return game.ClampToWorld(p, game.Tuning{Width: t.Width, Height: t.Height})
}
