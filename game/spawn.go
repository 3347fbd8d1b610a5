package game

import "math/rand"

// EdgeSpawn picks a random world edge and a point 80-100px inward from it.
func EdgeSpawn(rng *rand.Rand, t Tuning) Vec {
	inset := t.PlayerEdgeMin + rng.Float64()*(t.PlayerEdgeMax-t.PlayerEdgeMin)
	switch rng.Intn(4) {
	case 0: // top
		return Vec{rng.Float64() * t.Width, inset}
	case 1: // bottom
		return Vec{rng.Float64() * t.Width, t.Height - inset}
	case 2: // left
		return Vec{inset, rng.Float64() * t.Height}
	default: // right
		return Vec{t.Width - inset, rng.Float64() * t.Height}
	}
}

// SpawnDucks replaces all ducks with DucksCount ducks per configured color,
// clustered around the world center.
func (s *State) SpawnDucks() {
	s.ClearDucks()
	t := s.Tuning
	center := Vec{t.Width / 2, t.Height / 2}
	for _, color := range s.Options.Colors {
		for i := 0; i < s.Options.DucksCount; i++ {
			s.nextDuck++
			offset := Vec{
				(s.rng.Float64()*2 - 1) * t.DuckSpawnSpread,
				(s.rng.Float64()*2 - 1) * t.DuckSpawnSpread,
			}
			s.Ducks[s.nextDuck] = &Duck{
				ID:    s.nextDuck,
				Pos:   center.Add(offset),
				Color: color,
			}
		}
	}
}

func (s *State) ClearDucks() {
	for id := range s.Ducks {
		delete(s.Ducks, id)
	}
	for id := range s.groupMemo {
		delete(s.groupMemo, id)
	}
	s.Groups = nil
}

// RespawnPlayers moves every player to a fresh edge-biased position.
func (s *State) RespawnPlayers() {
	for _, p := range s.Players {
		p.Pos = EdgeSpawn(s.rng, s.Tuning)
	}
}
