package client

import (
	"sort"

	"quack/protocol"
)

// Event is a change to the authoritative view, delivered by the Bridge and
// applied by the Driver on its own goroutine.
type Event interface {
	event()
}

type PlayerJoined struct {
	Player protocol.PlayerState
	Self   bool
}

type PlayerLeft struct {
	ID string
}

type PlayerUpdated struct {
	Player protocol.PlayerState
	Self   bool
}

type DuckAdded struct{ Duck protocol.DuckState }
type DuckChanged struct{ Duck protocol.DuckState }
type DuckRemoved struct{ ID string }

type PhaseChanged struct {
	From, To string
}

type GameOptionsChanged struct {
	Options protocol.GameOptions
}

// MatchTimeUpdated carries the match timer. StartedAt is zero outside a
// match; FinalTime is the length of the last match in seconds.
type MatchTimeUpdated struct {
	StartedAt int64
	FinalTime float64
}

type Disconnected struct {
	Err error
}

func (PlayerJoined) event()       {}
func (PlayerLeft) event()         {}
func (PlayerUpdated) event()      {}
func (DuckAdded) event()          {}
func (DuckChanged) event()        {}
func (DuckRemoved) event()        {}
func (PhaseChanged) event()       {}
func (GameOptionsChanged) event() {}
func (MatchTimeUpdated) event()   {}
func (Disconnected) event()       {}

// Listener is implemented by UI collaborators that only care about the
// coarse state of the room.
type Listener interface {
	PhaseChanged(from, to string)
	PlayersUpdated(players []protocol.PlayerState)
	GameOptionsUpdated(opts protocol.GameOptions)
	MatchTimeUpdated(startedAt int64, finalTime float64)
}

type nopListener struct{}

func (nopListener) PhaseChanged(string, string)             {}
func (nopListener) PlayersUpdated([]protocol.PlayerState)   {}
func (nopListener) GameOptionsUpdated(protocol.GameOptions) {}
func (nopListener) MatchTimeUpdated(int64, float64)         {}

// snapshotEvents lists what changed between two snapshots. Events come out
// in a stable order: phase, timer, options, players, ducks.
func snapshotEvents(prev, next protocol.Snapshot, self string) []Event {
	var out []Event
	if prev.Phase != next.Phase {
		out = append(out, PhaseChanged{From: prev.Phase, To: next.Phase})
	}
	if prev.StartedAt != next.StartedAt || prev.FinalTime != next.FinalTime {
		out = append(out, MatchTimeUpdated{StartedAt: next.StartedAt, FinalTime: next.FinalTime})
	}
	if !sameOptions(prev.Options, next.Options) {
		out = append(out, GameOptionsChanged{Options: next.Options})
	}

	for _, id := range sortedKeys(next.Players) {
		p := next.Players[id]
		old, ok := prev.Players[id]
		switch {
		case !ok:
			out = append(out, PlayerJoined{Player: p, Self: id == self})
		case old != p:
			out = append(out, PlayerUpdated{Player: p, Self: id == self})
		}
	}
	for _, id := range sortedKeys(prev.Players) {
		if _, ok := next.Players[id]; !ok {
			out = append(out, PlayerLeft{ID: id})
		}
	}

	for _, id := range sortedKeys(next.Ducks) {
		d := next.Ducks[id]
		old, ok := prev.Ducks[id]
		switch {
		case !ok:
			out = append(out, DuckAdded{Duck: d})
		case old != d:
			out = append(out, DuckChanged{Duck: d})
		}
	}
	for _, id := range sortedKeys(prev.Ducks) {
		if _, ok := next.Ducks[id]; !ok {
			out = append(out, DuckRemoved{ID: id})
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameOptions(a, b protocol.GameOptions) bool {
	if a.DucksCount != b.DucksCount || len(a.Colors) != len(b.Colors) {
		return false
	}
	for i := range a.Colors {
		if a.Colors[i] != b.Colors[i] {
			return false
		}
	}
	return true
}
