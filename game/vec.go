package game

import "math"

// Vec is a 2D vector in world pixels (or pixels per tick for velocities).
type Vec struct {
	X, Y float64
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return math.Hypot(v.X-o.X, v.Y-o.Y) }

// Normalize returns the unit vector and false when v has no usable length.
func (v Vec) Normalize() (Vec, bool) {
	l := v.Len()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec{}, false
	}
	return Vec{v.X / l, v.Y / l}, true
}

// ClampLen scales v down so its length does not exceed max. It never
// scales up.
func (v Vec) ClampLen(max float64) Vec {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// Lerp moves a fraction alpha of the way from v to o.
func (v Vec) Lerp(o Vec, alpha float64) Vec {
	return Vec{v.X + (o.X-v.X)*alpha, v.Y + (o.Y-v.Y)*alpha}
}

// Approach steers v toward target changing it by at most maxDelta.
func (v Vec) Approach(target Vec, maxDelta float64) Vec {
	return v.Add(target.Sub(v).ClampLen(maxDelta))
}

func (v Vec) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const epsilon = 1e-6
