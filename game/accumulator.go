package game

import "time"

// Accumulator turns variable wall clock deltas into a whole number of fixed
// steps. Time that is not yet a full step carries over.
type Accumulator struct {
	Step     time.Duration
	MaxSteps int // catch-up cap per Advance, 0 means unlimited

	carry time.Duration
}

func NewAccumulator(hz, maxSteps int) *Accumulator {
	if hz <= 0 {
		hz = 60
	}
	return &Accumulator{Step: time.Second / time.Duration(hz), MaxSteps: maxSteps}
}

// Advance adds elapsed to the carry and returns how many steps to run.
// Steps beyond MaxSteps are dropped rather than replayed.
func (a *Accumulator) Advance(elapsed time.Duration) int {
	if elapsed > 0 {
		a.carry += elapsed
	}
	n := 0
	for a.carry >= a.Step {
		a.carry -= a.Step
		n++
	}
	if a.MaxSteps > 0 && n > a.MaxSteps {
		n = a.MaxSteps
	}
	return n
}

func (a *Accumulator) Carry() time.Duration { return a.carry }
