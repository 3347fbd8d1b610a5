package client

import "quack/game"

type Correction int

const (
	CorrectionNone Correction = iota
	CorrectionBlend
	CorrectionSnap
)

func (c Correction) String() string {
	switch c {
	case CorrectionBlend:
		return "blend"
	case CorrectionSnap:
		return "snap"
	}
	return "none"
}

// Reconciler pulls the predicted local position towards the last
// authoritative position.
type Reconciler struct {
	Small float64
	Snap  float64
	Alpha float64

	server game.Vec
	known  bool
}

func NewReconciler(t Tuning) *Reconciler {
	return &Reconciler{Small: t.ReconcileSmall, Snap: t.ReconcileSnap, Alpha: t.ReconcileAlpha}
}

// SetServer records the latest authoritative position.
func (r *Reconciler) SetServer(p game.Vec) {
	r.server = p
	r.known = true
}

func (r *Reconciler) Server() (game.Vec, bool) { return r.server, r.known }

// Step corrects m towards the server position. Small errors are ignored,
// medium ones blended, large ones snapped with velocity reset.
func (r *Reconciler) Step(m *Movement) Correction {
	if !r.known {
		return CorrectionNone
	}
	err := r.server.Dist(m.Pos)
	switch {
	case err < r.Small:
		return CorrectionNone
	case err > r.Snap:
		m.Pos = r.server
		m.Vel = game.Vec{}
		return CorrectionSnap
	default:
		m.Pos = m.Pos.Lerp(r.server, r.Alpha)
		return CorrectionBlend
	}
}
