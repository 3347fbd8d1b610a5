package game

import "sort"

type StepResult struct {
	Won bool
}

// Step advances the room by one fixed tick. now is wall clock in ms and
// drives panic timers, merge locks and the match timer.
func Step(s *State, now int64) StepResult {
	s.Tick++
	t := s.Tuning
	for _, p := range s.Players {
		in, ok := p.inputs.Latest()
		if !ok {
			continue
		}
		v, ok := Sanitize(in, t.MaxSpeedPerTick, t.InputEpsilon)
		if !ok {
			continue
		}
		p.Pos = ClampToWorld(p.Pos.Add(v), t)
	}

	if len(s.Ducks) == 0 {
		s.Groups = nil
		return StepResult{}
	}

	ducks := s.sortedDucks()
	s.flee(ducks, now)

	calm := make([]*Duck, 0, len(ducks))
	for _, d := range ducks {
		if !d.Panicking(now) {
			calm = append(calm, d)
		}
	}
	groups := BuildGroups(calm, t.StickRadius)
	s.targetGroups(groups, now)
	s.seekSolo(calm, groups)
	s.applyGroupVelocity(groups)

	for _, d := range ducks {
		d.Pos = d.Pos.Add(d.Vel)
	}
	s.resolveCollisions(ducks)
	s.Groups = groups

	if s.Phase == PhasePlaying && s.CheckWin() {
		s.SetPhase(PhaseEnded, now)
		return StepResult{Won: true}
	}
	return StepResult{}
}

func (s *State) sortedDucks() []*Duck {
	out := make([]*Duck, 0, len(s.Ducks))
	for _, d := range s.Ducks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
