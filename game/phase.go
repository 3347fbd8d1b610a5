package game

// SetPhase runs the transition pipeline from the current phase to next.
// Setting the phase the room is already in is a no-op. It reports whether
// the phase changed.
func (s *State) SetPhase(next Phase, now int64) bool {
	prev := s.Phase
	if next == prev {
		return false
	}
	if prev == PhasePlaying {
		s.FinalTime = float64(now-s.StartedAt) / 1000
		s.StartedAt = 0
	}
	switch next {
	case PhasePlaying:
		s.SpawnDucks()
		s.RespawnPlayers()
		s.StartedAt = now
		s.FinalTime = 0
	case PhaseLobby, PhaseEnded:
		s.ClearDucks()
	}
	s.Phase = next
	return true
}

// Elapsed returns the running match time in seconds, or the final time once
// the match is over.
func (s *State) Elapsed(now int64) float64 {
	if s.Phase == PhasePlaying && s.StartedAt > 0 {
		return float64(now-s.StartedAt) / 1000
	}
	return s.FinalTime
}
