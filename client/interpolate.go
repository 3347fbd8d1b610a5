package client

import "quack/game"

type remote struct {
	display game.Vec
	target  game.Vec
}

// Interpolator smooths remote entities towards their last authoritative
// position. Nothing is predicted.
type Interpolator struct {
	Alpha    float64
	entities map[string]*remote
}

func NewInterpolator(alpha float64) *Interpolator {
	return &Interpolator{Alpha: alpha, entities: make(map[string]*remote)}
}

// Set stores the authoritative position for id. A new entity appears at
// that position without easing in.
func (i *Interpolator) Set(id string, p game.Vec) {
	if e, ok := i.entities[id]; ok {
		e.target = p
		return
	}
	i.entities[id] = &remote{display: p, target: p}
}

func (i *Interpolator) Remove(id string) { delete(i.entities, id) }

func (i *Interpolator) Clear() {
	for id := range i.entities {
		delete(i.entities, id)
	}
}

func (i *Interpolator) Step() {
	for _, e := range i.entities {
		e.display = e.display.Lerp(e.target, i.Alpha)
	}
}

// Position returns the displayed position of id.
func (i *Interpolator) Position(id string) (game.Vec, bool) {
	e, ok := i.entities[id]
	if !ok {
		return game.Vec{}, false
	}
	return e.display, true
}

func (i *Interpolator) Len() int { return len(i.entities) }
