package client

import (
	"context"
	"time"

	"quack/game"
	"quack/protocol"
)

// InputSender receives the velocity predicted for each tick.
type InputSender interface {
	SendInput(v game.Vec) error
}

// Driver runs the client's fixed step loop. Each frame it first applies
// every pending event to the backing fields, then runs the due ticks:
// movement, reconciliation and remote interpolation, in that order.
type Driver struct {
	Movement   *Movement
	Reconciler *Reconciler
	Players    *Interpolator
	Ducks      *Interpolator

	selfID   string
	events   <-chan Event
	out      InputSender
	listener Listener
	acc      *game.Accumulator

	phase   string
	players map[string]protocol.PlayerState
	ducks   map[string]protocol.DuckState
	idle    bool
	err     error
	closed  bool
}

func NewDriver(selfID string, events <-chan Event, out InputSender, t Tuning, l Listener) *Driver {
	if l == nil {
		l = nopListener{}
	}
	return &Driver{
		Movement:   NewMovement(t, game.Vec{X: t.Width / 2, Y: t.Height / 2}),
		Reconciler: NewReconciler(t),
		Players:    NewInterpolator(t.RemoteAlpha),
		Ducks:      NewInterpolator(t.RemoteAlpha),
		selfID:     selfID,
		events:     events,
		out:        out,
		listener:   l,
		acc:        game.NewAccumulator(t.TickHz, 5),
		players:    make(map[string]protocol.PlayerState),
		ducks:      make(map[string]protocol.DuckState),
		idle:       true,
	}
}

func (d *Driver) SelfID() string { return d.selfID }

// Phase is the last phase reported by the server.
func (d *Driver) Phase() string { return d.phase }

func (d *Driver) Player(id string) (protocol.PlayerState, bool) {
	p, ok := d.players[id]
	return p, ok
}

func (d *Driver) Duck(id string) (protocol.DuckState, bool) {
	dk, ok := d.ducks[id]
	return dk, ok
}

func (d *Driver) NumDucks() int { return len(d.ducks) }

// Frame processes pending events and then runs as many fixed ticks as
// elapsed covers. It returns the number of ticks run, and ErrClosed once
// the connection is gone.
func (d *Driver) Frame(elapsed time.Duration) (int, error) {
	d.drain()
	if d.closed {
		return 0, d.closeErr()
	}
	n := d.acc.Advance(elapsed)
	for i := 0; i < n; i++ {
		d.tick()
	}
	return n, nil
}

// Run calls Frame on every interval until ctx is done or the connection
// closes.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := d.Frame(now.Sub(last)); err != nil {
				return err
			}
			last = now
		}
	}
}

func (d *Driver) tick() {
	v := d.Movement.Step()
	zero := v.Len() == 0
	if !(zero && d.idle) {
		if err := d.out.SendInput(v); err != nil && d.err == nil {
			d.err = err
		}
	}
	d.idle = zero
	d.Reconciler.Step(d.Movement)
	d.Players.Step()
	d.Ducks.Step()
}

func (d *Driver) drain() {
	playersChanged := false
	for {
		select {
		case ev, ok := <-d.events:
			if !ok {
				d.closed = true
				d.flushPlayers(playersChanged)
				return
			}
			if d.apply(ev) {
				playersChanged = true
			}
		default:
			d.flushPlayers(playersChanged)
			return
		}
	}
}

func (d *Driver) flushPlayers(changed bool) {
	if !changed {
		return
	}
	out := make([]protocol.PlayerState, 0, len(d.players))
	for _, id := range sortedKeys(d.players) {
		out = append(out, d.players[id])
	}
	d.listener.PlayersUpdated(out)
}

// apply writes one event into the backing fields. It reports whether the
// player list changed.
func (d *Driver) apply(ev Event) bool {
	switch e := ev.(type) {
	case PlayerJoined:
		d.players[e.Player.ID] = e.Player
		pos := game.Vec{X: e.Player.X, Y: e.Player.Y}
		if e.Self {
			d.Movement.Pos = pos
			d.Reconciler.SetServer(pos)
		} else {
			d.Players.Set(e.Player.ID, pos)
		}
		return true
	case PlayerUpdated:
		d.players[e.Player.ID] = e.Player
		pos := game.Vec{X: e.Player.X, Y: e.Player.Y}
		if e.Self {
			d.Reconciler.SetServer(pos)
		} else {
			d.Players.Set(e.Player.ID, pos)
		}
		return true
	case PlayerLeft:
		delete(d.players, e.ID)
		d.Players.Remove(e.ID)
		return true
	case DuckAdded:
		d.ducks[e.Duck.ID] = e.Duck
		d.Ducks.Set(e.Duck.ID, game.Vec{X: e.Duck.X, Y: e.Duck.Y})
	case DuckChanged:
		d.ducks[e.Duck.ID] = e.Duck
		d.Ducks.Set(e.Duck.ID, game.Vec{X: e.Duck.X, Y: e.Duck.Y})
	case DuckRemoved:
		delete(d.ducks, e.ID)
		d.Ducks.Remove(e.ID)
	case PhaseChanged:
		d.phase = e.To
		d.listener.PhaseChanged(e.From, e.To)
	case GameOptionsChanged:
		d.listener.GameOptionsUpdated(e.Options)
	case MatchTimeUpdated:
		d.listener.MatchTimeUpdated(e.StartedAt, e.FinalTime)
	case Disconnected:
		d.closed = true
		if e.Err != nil && d.err == nil {
			d.err = e.Err
		}
		for id := range d.ducks {
			delete(d.ducks, id)
		}
		d.Players.Clear()
		d.Ducks.Clear()
		d.Movement.SetActive(false)
	}
	return false
}

func (d *Driver) closeErr() error {
	if d.err != nil {
		return d.err
	}
	return ErrClosed
}
