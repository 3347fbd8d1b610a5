package game

import "math"

// repulsion below this length counts as cancelled out
const fleeDegenerate = 1e-3

// flee arms panic timers and steers panicking ducks away from players.
func (s *State) flee(ducks []*Duck, now int64) {
	if len(s.Players) == 0 {
		return
	}
	t := s.Tuning

	var centroid Vec
	for _, p := range s.Players {
		centroid = centroid.Add(p.Pos)
	}
	centroid = centroid.Scale(1 / float64(len(s.Players)))

	for _, d := range ducks {
		var repulse Vec
		nearest := math.Inf(1)
		threats := 0
		for _, p := range s.Players {
			diff := d.Pos.Sub(p.Pos)
			dist := diff.Len()
			if dist < nearest {
				nearest = dist
			}
			if dist >= t.PanicRadius {
				continue
			}
			threats++
			w := 1 - clamp(dist/t.PanicRadius, 0, 1)
			if dir, ok := diff.Normalize(); ok {
				repulse = repulse.Add(dir.Scale(w * w))
			}
		}
		if threats > 0 {
			if until := now + t.PanicCooldownMs; until > d.PanicUntil {
				d.PanicUntil = until
			}
		}
		if !d.Panicking(now) {
			continue
		}

		dir, ok := Vec{}, false
		if repulse.Len() > fleeDegenerate {
			dir, ok = repulse.Normalize()
		}
		if !ok && threats > 0 && len(s.Players) > 1 {
			dir, ok = d.Pos.Sub(centroid).Normalize()
		}
		if !ok {
			dir, ok = d.Vel.Normalize()
		}
		if !ok {
			dir, ok = d.Pos.Sub(centroid).Normalize()
		}
		if !ok {
			dir = Vec{1, 0}
		}

		d.Vel = d.Vel.Approach(dir.Scale(fleeSpeed(nearest, t)), t.FleeAccel)
	}
}

// fleeSpeed eases between the min and max flee speed as the nearest player
// gets closer.
func fleeSpeed(nearest float64, t Tuning) float64 {
	closeness := 1 - clamp(nearest/t.PanicRadius, 0, 1)
	exp := t.FleeExponent
	if exp <= 0 {
		exp = 1
	}
	return t.FleeMinSpeed + (t.FleeMaxSpeed-t.FleeMinSpeed)*math.Pow(closeness, exp)
}
