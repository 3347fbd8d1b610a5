package protocol

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrVersionGap is returned when a delta patch does not continue from the
// snapshot it is applied to. The receiver should ask for a resync.
var ErrVersionGap = errors.New("protocol: patch base does not match snapshot version")

type PlayerState struct {
	ID       string  `json:"id"`
	Nickname string  `json:"nickname"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type DuckState struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	Color      string  `json:"color"`
	PanicUntil int64   `json:"panicUntil"`
}

// Snapshot is the broadcast view of a room at one version.
type Snapshot struct {
	Version   uint64
	Phase     string
	StartedAt int64   // ms, zero outside playing
	FinalTime float64 // seconds
	Options   GameOptions
	Players   map[string]PlayerState
	Ducks     map[string]DuckState
}

func NewSnapshot() Snapshot {
	return Snapshot{
		Players: make(map[string]PlayerState),
		Ducks:   make(map[string]DuckState),
	}
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.Options = GameOptions{Colors: append([]string(nil), s.Options.Colors...), DucksCount: s.Options.DucksCount}
	out.Players = make(map[string]PlayerState, len(s.Players))
	for id, p := range s.Players {
		out.Players[id] = p
	}
	out.Ducks = make(map[string]DuckState, len(s.Ducks))
	for id, d := range s.Ducks {
		out.Ducks[id] = d
	}
	return out
}

// Patch moves a snapshot from Base to Version. A full patch replaces the
// snapshot entirely and ignores Base.
type Patch struct {
	Version uint64 `json:"v"`
	Base    uint64 `json:"base"`
	Full    bool   `json:"full,omitempty"`

	Phase     *string      `json:"phase,omitempty"`
	StartedAt *int64       `json:"startedAt,omitempty"`
	FinalTime *float64     `json:"finalTime,omitempty"`
	Options   *GameOptions `json:"options,omitempty"`

	Players        []PlayerState `json:"players,omitempty"`
	RemovedPlayers []string      `json:"removedPlayers,omitempty"`
	Ducks          []DuckState   `json:"ducks,omitempty"`
	RemovedDucks   []string      `json:"removedDucks,omitempty"`
}

// Empty reports whether the patch carries no change.
func (p Patch) Empty() bool {
	return !p.Full && p.Phase == nil && p.StartedAt == nil && p.FinalTime == nil && p.Options == nil &&
		len(p.Players) == 0 && len(p.RemovedPlayers) == 0 && len(p.Ducks) == 0 && len(p.RemovedDucks) == 0
}

// FullPatch describes s completely.
func FullPatch(s Snapshot) Patch {
	phase, started, final := s.Phase, s.StartedAt, s.FinalTime
	opts := s.Clone().Options
	p := Patch{
		Version:   s.Version,
		Full:      true,
		Phase:     &phase,
		StartedAt: &started,
		FinalTime: &final,
		Options:   &opts,
	}
	for _, pl := range s.Players {
		p.Players = append(p.Players, pl)
	}
	for _, d := range s.Ducks {
		p.Ducks = append(p.Ducks, d)
	}
	p.sort()
	return p
}

// Diff returns the delta that turns prev into next.
func Diff(prev, next Snapshot) Patch {
	p := Patch{Version: next.Version, Base: prev.Version}
	if next.Phase != prev.Phase {
		v := next.Phase
		p.Phase = &v
	}
	if next.StartedAt != prev.StartedAt {
		v := next.StartedAt
		p.StartedAt = &v
	}
	if next.FinalTime != prev.FinalTime {
		v := next.FinalTime
		p.FinalTime = &v
	}
	if !sameOptions(prev.Options, next.Options) {
		v := GameOptions{Colors: append([]string(nil), next.Options.Colors...), DucksCount: next.Options.DucksCount}
		p.Options = &v
	}
	for id, pl := range next.Players {
		if old, ok := prev.Players[id]; !ok || old != pl {
			p.Players = append(p.Players, pl)
		}
	}
	for id := range prev.Players {
		if _, ok := next.Players[id]; !ok {
			p.RemovedPlayers = append(p.RemovedPlayers, id)
		}
	}
	for id, d := range next.Ducks {
		if old, ok := prev.Ducks[id]; !ok || old != d {
			p.Ducks = append(p.Ducks, d)
		}
	}
	for id := range prev.Ducks {
		if _, ok := next.Ducks[id]; !ok {
			p.RemovedDucks = append(p.RemovedDucks, id)
		}
	}
	p.sort()
	return p
}

// ApplyPatch returns s with p applied. s is not modified.
func ApplyPatch(s Snapshot, p Patch) (Snapshot, error) {
	var next Snapshot
	if p.Full {
		next = NewSnapshot()
	} else {
		if p.Base != s.Version {
			return s, errors.Wrapf(ErrVersionGap, "have %d, patch base %d", s.Version, p.Base)
		}
		next = s.Clone()
	}
	next.Version = p.Version
	if p.Phase != nil {
		next.Phase = *p.Phase
	}
	if p.StartedAt != nil {
		next.StartedAt = *p.StartedAt
	}
	if p.FinalTime != nil {
		next.FinalTime = *p.FinalTime
	}
	if p.Options != nil {
		next.Options = GameOptions{Colors: append([]string(nil), p.Options.Colors...), DucksCount: p.Options.DucksCount}
	}
	for _, pl := range p.Players {
		if pl.ID == "" {
			return s, errors.New("protocol: player patch without id")
		}
		next.Players[pl.ID] = pl
	}
	for _, id := range p.RemovedPlayers {
		delete(next.Players, id)
	}
	for _, d := range p.Ducks {
		if d.ID == "" {
			return s, errors.New("protocol: duck patch without id")
		}
		next.Ducks[d.ID] = d
	}
	for _, id := range p.RemovedDucks {
		delete(next.Ducks, id)
	}
	return next, nil
}

func (p *Patch) sort() {
	sort.Slice(p.Players, func(i, j int) bool { return p.Players[i].ID < p.Players[j].ID })
	sort.Slice(p.Ducks, func(i, j int) bool { return p.Ducks[i].ID < p.Ducks[j].ID })
	sort.Strings(p.RemovedPlayers)
	sort.Strings(p.RemovedDucks)
}

func sameOptions(a, b GameOptions) bool {
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
