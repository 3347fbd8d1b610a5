package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"quack/game"
	"quack/protocol"
)

var ErrClosed = errors.New("client: connection closed")

const (
	writeWait       = 10 * time.Second
	eventBufferSize = 1024
)

type DialOptions struct {
	// BaseURL is the server's HTTP address, e.g. http://localhost:2567.
	BaseURL  string
	Nickname string
	// RoomCode joins the room holding this code, or creates one under it.
	RoomCode string
	Codec    protocol.Codec

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Logger     *log.Logger
}

// Bridge owns the connection to a room. It applies state patches to its
// own copy of the snapshot and turns the differences into Events. Events
// are only delivered through the channel returned by Events.
type Bridge struct {
	conn    *websocket.Conn
	codec   protocol.Codec
	logger  *log.Logger
	welcome protocol.Welcome

	events    chan Event
	snap      protocol.Snapshot // owned by readLoop
	resyncing bool              // owned by readLoop
	version   atomic.Uint64

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Connect joins a room. With a room code it first asks the server whether
// the code is live and joins that room by id; otherwise it creates a room
// seeded with the code.
func Connect(ctx context.Context, opts DialOptions) (*Bridge, error) {
	if opts.Codec == nil {
		opts.Codec = protocol.JSON
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	q := url.Values{"codec": {opts.Codec.Name()}}
	if opts.Nickname != "" {
		q.Set("nickname", opts.Nickname)
	}
	if opts.RoomCode != "" {
		lookup, err := lookupRoom(ctx, opts.HTTPClient, opts.BaseURL, opts.RoomCode)
		if err != nil {
			return nil, err
		}
		if lookup.Exists && lookup.RoomID != nil {
			byID := cloneValues(q)
			byID.Set("roomId", *lookup.RoomID)
			b, err := dial(ctx, opts, byID)
			if err == nil {
				return b, nil
			}
			// The room may have been disposed since the lookup.
			opts.Logger.Printf("join room %s failed, creating: %v", *lookup.RoomID, err)
		}
		q.Set("roomCode", opts.RoomCode)
	}
	return dial(ctx, opts, q)
}

func lookupRoom(ctx context.Context, hc *http.Client, base, code string) (protocol.LookupResponse, error) {
	var out protocol.LookupResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/room/"+url.PathEscape(code), nil)
	if err != nil {
		return out, errors.Wrap(err, "client: lookup request")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return out, errors.Wrap(err, "client: lookup")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, errors.Errorf("client: lookup %s: %s", code, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, errors.Wrap(err, "client: decode lookup")
	}
	return out, nil
}

func dial(ctx context.Context, opts DialOptions, q url.Values) (*Bridge, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "client: base url")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = q.Encode()

	conn, resp, err := opts.Dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, "client: dial")
	}

	b := &Bridge{
		conn:   conn,
		codec:  opts.Codec,
		logger: opts.Logger,
		events: make(chan Event, eventBufferSize),
		snap:   protocol.NewSnapshot(),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := b.readWelcome(); err != nil {
		conn.Close()
		return nil, err
	}
	go b.readLoop()
	return b, nil
}

func (b *Bridge) readWelcome() error {
	_ = b.conn.SetReadDeadline(time.Now().Add(writeWait))
	defer b.conn.SetReadDeadline(time.Time{})
	_, msg, err := b.conn.ReadMessage()
	if err != nil {
		return errors.Wrap(err, "client: read welcome")
	}
	env, err := b.codec.DecodeEnvelope(msg)
	if err != nil {
		return err
	}
	switch env.T {
	case protocol.MsgWelcome:
		w, err := protocol.DecodePayload[protocol.Welcome](env)
		if err != nil {
			return err
		}
		b.welcome = w
		return nil
	case protocol.MsgError:
		e, err := protocol.DecodePayload[protocol.Error](env)
		if err != nil {
			return err
		}
		return errors.Errorf("client: join rejected: %s", e.Code)
	}
	return errors.Errorf("client: expected welcome, got %q", env.T)
}

// Welcome describes the session the server assigned.
func (b *Bridge) Welcome() protocol.Welcome { return b.welcome }

// SelfID is this client's player id.
func (b *Bridge) SelfID() string { return b.welcome.SessionID }

// Events is closed after a Disconnected event once the connection ends.
func (b *Bridge) Events() <-chan Event { return b.events }

func (b *Bridge) readLoop() {
	var cause error
	defer func() {
		b.emit(Disconnected{Err: cause})
		close(b.events)
		close(b.done)
	}()
	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			select {
			case <-b.closed:
			default:
				cause = errors.Wrap(err, "client: read")
			}
			return
		}
		env, err := b.codec.DecodeEnvelope(msg)
		if err != nil {
			b.logger.Printf("discarding malformed frame: %v", err)
			continue
		}
		switch env.T {
		case protocol.MsgState:
			p, err := protocol.DecodePayload[protocol.Patch](env)
			if err != nil {
				b.logger.Printf("discarding state frame: %v", err)
				continue
			}
			b.applyPatch(p)
		case protocol.MsgOptions:
			// Options also arrive with the next state patch, which is where
			// the event comes from.
		case protocol.MsgError:
			if e, err := protocol.DecodePayload[protocol.Error](env); err == nil {
				b.logger.Printf("server error: %s %s", e.Code, e.Message)
			}
		}
	}
}

func (b *Bridge) applyPatch(p protocol.Patch) {
	next, err := protocol.ApplyPatch(b.snap, p)
	if errors.Is(err, protocol.ErrVersionGap) {
		if b.resyncing {
			return
		}
		b.logger.Printf("state v%d does not follow v%d, resyncing", p.Version, b.snap.Version)
		b.resyncing = true
		if err := b.send(protocol.MsgResync, protocol.Resync{Have: b.snap.Version}); err != nil {
			b.logger.Printf("resync: %v", err)
		}
		return
	}
	if err != nil {
		b.logger.Printf("discarding state v%d: %v", p.Version, err)
		return
	}
	for _, ev := range snapshotEvents(b.snap, next, b.welcome.SessionID) {
		b.emit(ev)
	}
	if p.Full {
		b.resyncing = false
	}
	b.snap = next
	b.version.Store(next.Version)
}

func (b *Bridge) emit(ev Event) {
	select {
	case b.events <- ev:
		return
	default:
	}
	select {
	case b.events <- ev:
	case <-b.closed:
	}
}

func (b *Bridge) send(t string, payload any) error {
	msg, err := b.codec.Encode(t, payload)
	if err != nil {
		return err
	}
	kind := websocket.TextMessage
	if b.codec.Binary() {
		kind = websocket.BinaryMessage
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	select {
	case <-b.closed:
		return ErrClosed
	default:
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteMessage(kind, msg)
}

func (b *Bridge) SendInput(v game.Vec) error {
	return b.send(protocol.MsgInput, protocol.Input{VX: v.X, VY: v.Y})
}

func (b *Bridge) SetNickname(name string) error {
	return b.send(protocol.MsgNickname, name)
}

func (b *Bridge) SetPhase(phase string) error {
	return b.send(protocol.MsgPhase, phase)
}

// SetGameOptions requests an options change. Nil fields are left alone.
func (b *Bridge) SetGameOptions(colors []string, ducksCount *float64) error {
	opts := protocol.SetGameOptions{}
	if colors != nil {
		opts.Colors = colors
	}
	if ducksCount != nil {
		opts.DucksCount = *ducksCount
	}
	return b.send(protocol.MsgOptions, opts)
}

func (b *Bridge) Resync() error {
	return b.send(protocol.MsgResync, protocol.Resync{Have: b.version.Load()})
}

// Version is the version of the last applied state patch.
func (b *Bridge) Version() uint64 { return b.version.Load() }

// Close ends the session. Events still drains to a Disconnected event.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		b.writeMu.Lock()
		_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.writeMu.Unlock()
		err = b.conn.Close()
	})
	return err
}

// Done is closed when the read loop has exited.
func (b *Bridge) Done() <-chan struct{} { return b.done }

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
