package game

import (
	"math/rand"
	"strconv"
)

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// ParsePhase reports false for anything that is not a known phase.
func ParsePhase(s string) (Phase, bool) {
	switch Phase(s) {
	case PhaseLobby, PhasePlaying, PhaseEnded:
		return Phase(s), true
	}
	return "", false
}

type Player struct {
	ID       string
	Nickname string
	Pos      Vec

	inputs InputQueue
}

type DuckID uint64

func (id DuckID) String() string { return "d" + strconv.FormatUint(uint64(id), 10) }

type Duck struct {
	ID         DuckID
	Pos        Vec
	Vel        Vec
	Color      string
	PanicUntil int64 // wall clock ms
}

func (d *Duck) Panicking(now int64) bool { return now < d.PanicUntil }

type GameOptions struct {
	Colors     []string
	DucksCount int
}

func DefaultOptions() GameOptions {
	return GameOptions{
		Colors:     []string{"#ff4d4f", "#52c41a", "#1677ff", "#ffff00"},
		DucksCount: 4,
	}
}

func (o GameOptions) Clone() GameOptions {
	return GameOptions{Colors: append([]string(nil), o.Colors...), DucksCount: o.DucksCount}
}

// State is the authoritative state of one room. It is not safe for
// concurrent use; the owning room serialises all access.
type State struct {
	Tick    int
	Phase   Phase
	Players map[string]*Player
	Ducks   map[DuckID]*Duck
	Options GameOptions

	StartedAt int64   // ms, zero outside playing
	FinalTime float64 // seconds of the last finished match

	Tuning Tuning
	Groups []*Group // groups found during the last Step

	nextDuck  DuckID
	groupMemo map[DuckID]groupMemory
	rng       *rand.Rand
}

func NewState(t Tuning, rng *rand.Rand) *State {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &State{
		Phase:     PhaseLobby,
		Players:   make(map[string]*Player),
		Ducks:     make(map[DuckID]*Duck),
		Options:   DefaultOptions(),
		Tuning:    t,
		groupMemo: make(map[DuckID]groupMemory),
		rng:       rng,
	}
}

// AddPlayer creates the player for a newly joined client, spawned near a
// random edge of the world.
func (s *State) AddPlayer(id, nickname string) *Player {
	if p, ok := s.Players[id]; ok {
		return p
	}
	if !ValidNickname(nickname) {
		nickname = ""
	}
	p := &Player{ID: id, Nickname: nickname, Pos: EdgeSpawn(s.rng, s.Tuning)}
	s.Players[id] = p
	return p
}

func (s *State) RemovePlayer(id string) {
	delete(s.Players, id)
}

// SetNickname applies a nickname if it passes validation.
func (s *State) SetNickname(id, nickname string) bool {
	p, ok := s.Players[id]
	if !ok || !ValidNickname(nickname) {
		return false
	}
	p.Nickname = nickname
	return true
}

// EnqueueInput stores a raw velocity sample for the next tick. Non-finite
// samples are dropped.
func (s *State) EnqueueInput(id string, in Input) bool {
	p, ok := s.Players[id]
	if !ok {
		return false
	}
	if !in.Finite() {
		return false
	}
	p.inputs.Push(in)
	return true
}
