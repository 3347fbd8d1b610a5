package game

// CheckWin reports whether the ducks form exactly one monochrome group of
// DucksCount ducks per configured color, and nothing else. It uses the
// groups from the last Step.
func (s *State) CheckWin() bool {
	opts := s.Options
	if len(s.Ducks) == 0 || len(s.Groups) != len(opts.Colors) {
		return false
	}
	if len(s.Ducks) != len(opts.Colors)*opts.DucksCount {
		return false
	}
	seen := make(map[string]bool, len(opts.Colors))
	for _, g := range s.Groups {
		if g.Size != opts.DucksCount {
			return false
		}
		color := ""
		for i, id := range g.Members {
			d, ok := s.Ducks[id]
			if !ok {
				return false
			}
			if i == 0 {
				color = d.Color
			} else if d.Color != color {
				return false
			}
		}
		if seen[color] {
			return false
		}
		seen[color] = true
	}
	for _, c := range opts.Colors {
		if !seen[c] {
			return false
		}
	}
	return true
}
