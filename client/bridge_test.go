package client

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quack/network"
	"quack/protocol"
	"quack/room"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	m := room.NewManager(room.NewMemoryRegistry(), room.Options{Logger: quietLogger()})
	srv := httptest.NewServer(network.NewServer(m, network.ServerConfig{Logger: quietLogger()}).Router())
	t.Cleanup(func() {
		srv.Close()
		m.Close()
	})
	return srv, m
}

func connect(t *testing.T, base, nick, code string, codec protocol.Codec) *Bridge {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := Connect(ctx, DialOptions{BaseURL: base, Nickname: nick, RoomCode: code, Codec: codec, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// waitFor reads events until match returns true.
func waitFor(t *testing.T, b *Bridge, match func(Event) bool) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-b.Events():
			if !ok {
				t.Fatalf("events closed while waiting")
			}
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event")
		}
	}
}

func TestConnectSharesRoomByCode(t *testing.T) {
	srv, m := newServer(t)

	alice := connect(t, srv.URL, "alice", "pond", protocol.JSON)
	if alice.Welcome().RoomCode != "POND" {
		t.Fatalf("room code = %q", alice.Welcome().RoomCode)
	}
	waitFor(t, alice, func(ev Event) bool {
		j, ok := ev.(PlayerJoined)
		return ok && j.Self && j.Player.Nickname == "alice"
	})

	bob := connect(t, srv.URL, "bob", "POND", protocol.Msgpack)
	if bob.Welcome().RoomID != alice.Welcome().RoomID {
		t.Fatalf("bob joined %s, alice is in %s", bob.Welcome().RoomID, alice.Welcome().RoomID)
	}
	if rooms := m.ListRooms(); len(rooms) != 1 {
		t.Fatalf("rooms = %v", rooms)
	}
	waitFor(t, bob, func(ev Event) bool {
		j, ok := ev.(PlayerJoined)
		return ok && !j.Self && j.Player.ID == alice.SelfID()
	})
	waitFor(t, alice, func(ev Event) bool {
		j, ok := ev.(PlayerJoined)
		return ok && j.Player.ID == bob.SelfID()
	})
}

func TestSetPhaseStartsMatch(t *testing.T) {
	srv, _ := newServer(t)
	b := connect(t, srv.URL, "alice", "", protocol.JSON)
	waitFor(t, b, func(ev Event) bool {
		_, ok := ev.(PlayerJoined)
		return ok
	})

	if err := b.SetPhase("playing"); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	ev := waitFor(t, b, func(ev Event) bool {
		p, ok := ev.(PhaseChanged)
		return ok && p.To == "playing"
	})
	if ev.(PhaseChanged).From != "lobby" {
		t.Fatalf("phase change = %+v", ev)
	}
	waitFor(t, b, func(ev Event) bool {
		_, ok := ev.(DuckAdded)
		return ok
	})
	if b.Version() == 0 {
		t.Fatalf("no state applied")
	}
}

func TestConnectRejectedWhenRoomFull(t *testing.T) {
	m := room.NewManager(room.NewMemoryRegistry(), room.Options{MaxClients: 1, Logger: quietLogger()})
	srv := httptest.NewServer(network.NewServer(m, network.ServerConfig{Logger: quietLogger()}).Router())
	defer func() {
		srv.Close()
		m.Close()
	}()

	connect(t, srv.URL, "alice", "FULL", protocol.JSON)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, DialOptions{BaseURL: srv.URL, RoomCode: "FULL", Logger: quietLogger()})
	if err == nil {
		t.Fatalf("second client joined a full room")
	}
}

func TestVersionGapRequestsResync(t *testing.T) {
	upgrader := websocket.Upgrader{}
	resync := make(chan protocol.Resync, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		send := func(typ string, payload any) {
			b, err := protocol.JSON.Encode(typ, payload)
			if err != nil {
				t.Errorf("encode: %v", err)
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}

		snap := protocol.NewSnapshot()
		snap.Version = 1
		snap.Phase = "lobby"
		snap.Players["p1"] = protocol.PlayerState{ID: "p1", X: 10, Y: 10}
		send(protocol.MsgWelcome, protocol.Welcome{SessionID: "p1", RoomID: "r", RoomCode: "ABC"})
		send(protocol.MsgState, protocol.FullPatch(snap))
		send(protocol.MsgState, protocol.Patch{Version: 6, Base: 5})
		send(protocol.MsgState, protocol.Patch{Version: 7, Base: 6})

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.JSON.DecodeEnvelope(msg)
		if err != nil || env.T != protocol.MsgResync {
			t.Errorf("expected resync, got %q (%v)", env.T, err)
			return
		}
		req, err := protocol.DecodePayload[protocol.Resync](env)
		if err != nil {
			t.Errorf("decode resync: %v", err)
			return
		}
		resync <- req

		snap.Version = 8
		send(protocol.MsgState, protocol.FullPatch(snap))
		// Keep the socket open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	b := connect(t, srv.URL, "", "", protocol.JSON)
	if b.SelfID() != "p1" {
		t.Fatalf("self id = %q", b.SelfID())
	}
	select {
	case req := <-resync:
		if req.Have != 1 {
			t.Fatalf("resync have = %d, want 1", req.Have)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no resync request")
	}

	deadline := time.Now().Add(3 * time.Second)
	for b.Version() != 8 {
		if time.Now().After(deadline) {
			t.Fatalf("version = %d, want 8", b.Version())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCloseDeliversDisconnected(t *testing.T) {
	srv, _ := newServer(t)
	b := connect(t, srv.URL, "alice", "", protocol.JSON)
	b.Close()
	waitFor(t, b, func(ev Event) bool {
		_, ok := ev.(Disconnected)
		return ok
	})
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("read loop did not exit")
	}
}
