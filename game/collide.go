package game

// resolveCollisions separates overlapping ducks and keeps them inside the
// world. Runs Tuning.CollisionPass passes.
func (s *State) resolveCollisions(ducks []*Duck) {
	t := s.Tuning
	minDist := 2 * t.DuckRadius
	passes := t.CollisionPass
	if passes < 1 {
		passes = 1
	}
	for pass := 0; pass < passes; pass++ {
		for i := 0; i < len(ducks); i++ {
			a := ducks[i]
			for j := i + 1; j < len(ducks); j++ {
				b := ducks[j]
				diff := b.Pos.Sub(a.Pos)
				dist := diff.Len()
				if dist >= minDist {
					continue
				}
				n, ok := diff.Normalize()
				if !ok {
					n = Vec{1, 0}
				}
				push := n.Scale((minDist - dist) / 2)
				a.Pos = a.Pos.Sub(push)
				b.Pos = b.Pos.Add(push)
			}
		}
		for _, d := range ducks {
			s.keepInside(d)
		}
	}
}

func (s *State) keepInside(d *Duck) {
	t := s.Tuning
	d.Pos.X, d.Vel.X = borderAxis(d.Pos.X, d.Vel.X, t.Width, t)
	d.Pos.Y, d.Vel.Y = borderAxis(d.Pos.Y, d.Vel.Y, t.Height, t)
}

func borderAxis(p, v, size float64, t Tuning) (float64, float64) {
	if t.BorderBuffer > 0 {
		if p < t.BorderBuffer {
			p += (t.BorderBuffer - p) * t.BorderBias
		} else if p > size-t.BorderBuffer {
			p -= (p - (size - t.BorderBuffer)) * t.BorderBias
		}
	}
	lo, hi := t.DuckRadius, size-t.DuckRadius
	if p < lo {
		p = lo
		if v < 0 {
			v *= t.BorderDamping
		}
	} else if p > hi {
		p = hi
		if v > 0 {
			v *= t.BorderDamping
		}
	}
	return p, v
}
