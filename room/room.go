package room

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"

	"quack/game"
	"quack/protocol"
)

var (
	ErrRoomFull     = errors.New("room: full")
	ErrRoomNotFound = errors.New("room: not found")
	ErrRoomClosed   = errors.New("room: closed")
)

// Options configure a room. Zero values fall back to defaults.
type Options struct {
	MaxClients  int
	TickHz      int
	BroadcastHz int
	Tuning      *game.Tuning
	Logger      *log.Logger
	// Debug logs the size of every broadcast.
	Debug bool

	Clock func() time.Time
	Rand  *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.MaxClients <= 0 {
		o.MaxClients = 4
	}
	if o.TickHz <= 0 {
		o.TickHz = protocol.SimTickHz
	}
	if o.BroadcastHz <= 0 {
		o.BroadcastHz = protocol.BroadcastHz
	}
	if o.Tuning == nil {
		t := game.DefaultTuning()
		o.Tuning = &t
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

type Room struct {
	Inbox chan any

	ID      string
	Code    string           // shareable room code (e.g. "ABC123")
	OnEmpty func(id string) // called from the room goroutine when the last client leaves

	opts           Options
	log            *log.Logger
	broadcastEvery int
	state          *game.State
	acc            *game.Accumulator
	clients        map[string]Conn
	numClients     atomic.Int32

	lastSent protocol.Snapshot

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(id, code string, opts Options) *Room {
	opts = opts.withDefaults()
	broadcastEvery := opts.TickHz / opts.BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}
	base := opts.Logger
	r := &Room{
		Inbox:          make(chan any, 256),
		ID:             id,
		Code:           code,
		opts:           opts,
		log:            log.New(base.Writer(), base.Prefix()+"room "+code+" ", base.Flags()),
		broadcastEvery: broadcastEvery,
		state:          game.NewState(*opts.Tuning, opts.Rand),
		acc:            game.NewAccumulator(opts.TickHz, 5),
		clients:        make(map[string]Conn),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	r.lastSent = r.snapshot(0)
	return r
}

// Stop ends Run and closes every client connection. Safe to call more than
// once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} { return r.done }

// NumPlayers returns the current number of connected clients.
func (r *Room) NumPlayers() int {
	return int(r.numClients.Load())
}

// Send delivers a command to the room goroutine.
func (r *Room) Send(cmd any) error {
	select {
	case <-r.quit:
		return ErrRoomClosed
	default:
	}
	select {
	case r.Inbox <- cmd:
		return nil
	case <-r.quit:
		return ErrRoomClosed
	}
}

// Join adds a connection to the room and waits for the room to accept it.
func (r *Room) Join(conn Conn, nickname string) (string, error) {
	reply := make(chan JoinResult, 1)
	if err := r.Send(Join{Conn: conn, Nickname: nickname, Reply: reply}); err != nil {
		return "", err
	}
	select {
	case res := <-reply:
		return res.PlayerID, res.Err
	case <-r.quit:
		return "", ErrRoomClosed
	}
}

func (r *Room) Run() {
	defer close(r.done)
	defer r.closeClients()

	ticker := time.NewTicker(time.Second / time.Duration(r.opts.TickHz))
	defer ticker.Stop()
	last := r.opts.Clock()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			select {
			case <-r.quit:
				return
			default:
			}
			r.handleCommand(cmd)
		case <-ticker.C:
			now := r.opts.Clock()
			steps := r.acc.Advance(now.Sub(last))
			last = now
			for i := 0; i < steps; i++ {
				r.tick(now)
			}
		}
	}
}

func (r *Room) tick(now time.Time) {
	wasPlaying := r.state.Phase == game.PhasePlaying
	res := game.Step(r.state, now.UnixMilli())
	if res.Won && wasPlaying {
		elapsed := time.Duration(r.state.FinalTime * float64(time.Second))
		r.log.Printf("all flocks sorted after %s", durafmt.Parse(elapsed).LimitFirstN(2))
		r.broadcast()
		return
	}
	if r.state.Tick%r.broadcastEvery == 0 {
		r.broadcast()
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		c.Reply <- r.handleJoin(c)
	case Input:
		r.state.EnqueueInput(c.PlayerID, c.Input)
	case Leave:
		r.handleLeave(c.PlayerID)
	case SetNickname:
		if r.state.SetNickname(c.PlayerID, c.Nickname) {
			r.log.Printf("player %s is now %q", c.PlayerID, c.Nickname)
		}
	case SetPhase:
		r.handleSetPhase(c)
	case SetOptions:
		r.handleSetOptions(c)
	case Resync:
		if conn, ok := r.clients[c.PlayerID]; ok {
			r.sendFull(c.PlayerID, conn)
		}
	default:
		r.log.Printf("unknown command %T", cmd)
	}
}

func (r *Room) handleJoin(c Join) JoinResult {
	if len(r.clients) >= r.opts.MaxClients {
		return JoinResult{Err: ErrRoomFull}
	}
	id := uuid.NewString()
	r.state.AddPlayer(id, c.Nickname)
	// Existing clients learn about the newcomer now; the newcomer starts
	// from the snapshot this broadcast produced.
	r.broadcast()

	r.clients[id] = c.Conn
	r.numClients.Store(int32(len(r.clients)))
	r.log.Printf("client %s joined (%d/%d)", id, len(r.clients), r.opts.MaxClients)

	welcome := protocol.Welcome{SessionID: id, RoomID: r.ID, RoomCode: r.Code, TickHz: r.opts.TickHz}
	if b, err := c.Conn.Codec().Encode(protocol.MsgWelcome, welcome); err == nil {
		if err := c.Conn.Send(b); err != nil {
			r.dropClient(id)
			return JoinResult{Err: errors.Wrap(err, "room: send welcome")}
		}
	}
	r.sendFull(id, c.Conn)
	return JoinResult{PlayerID: id}
}

func (r *Room) handleLeave(playerID string) {
	if _, ok := r.clients[playerID]; !ok {
		return
	}
	r.dropClient(playerID)
	r.log.Printf("client %s left (%d/%d)", playerID, len(r.clients), r.opts.MaxClients)
	if len(r.clients) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

func (r *Room) dropClient(playerID string) {
	if c, ok := r.clients[playerID]; ok {
		_ = c.Close()
	}
	delete(r.clients, playerID)
	r.numClients.Store(int32(len(r.clients)))
	r.state.RemovePlayer(playerID)
}

func (r *Room) handleSetPhase(c SetPhase) {
	if _, ok := r.clients[c.PlayerID]; !ok {
		return
	}
	next, ok := game.ParsePhase(c.Phase)
	if !ok {
		return
	}
	now := r.opts.Clock().UnixMilli()
	prev := r.state.Phase
	if !r.state.SetPhase(next, now) {
		return
	}
	if prev == game.PhasePlaying {
		elapsed := time.Duration(r.state.FinalTime * float64(time.Second))
		r.log.Printf("phase %s -> %s after %s", prev, next, durafmt.Parse(elapsed).LimitFirstN(2))
	} else {
		r.log.Printf("phase %s -> %s (%d ducks)", prev, next, len(r.state.Ducks))
	}
	r.broadcast()
}

func (r *Room) handleSetOptions(c SetOptions) {
	if _, ok := r.clients[c.PlayerID]; !ok {
		return
	}
	if r.state.Phase != game.PhaseLobby {
		return
	}
	if !r.state.ApplyOptions(c.Update) {
		return
	}
	opts := r.state.Options.Clone()
	r.sendAll(protocol.MsgOptions, protocol.GameOptions{Colors: opts.Colors, DucksCount: opts.DucksCount})
	r.broadcast()
}

func (r *Room) closeClients() {
	for id, c := range r.clients {
		_ = c.Close()
		delete(r.clients, id)
	}
	r.numClients.Store(0)
}
