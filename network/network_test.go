package network

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quack/protocol"
	"quack/room"
)

func newTestServer(t *testing.T, opts room.Options) (*httptest.Server, *room.Manager) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	opts.Logger = logger
	m := room.NewManager(room.NewMemoryRegistry(), opts)
	srv := httptest.NewServer(NewServer(m, ServerConfig{Logger: logger}).Router())
	t.Cleanup(func() {
		srv.Close()
		m.Close()
	})
	return srv, m
}

func websocketURL(t *testing.T, base string, query url.Values) string {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()
	return u.String()
}

func dial(t *testing.T, rawURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, codec protocol.Codec) (int, protocol.Envelope) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := codec.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return kind, env
}

func getLookup(t *testing.T, base, code string) protocol.LookupResponse {
	t.Helper()
	resp, err := http.Get(base + "/room/" + code)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookup status = %d", resp.StatusCode)
	}
	var out protocol.LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	return out
}

func TestLookupUnknownCode(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{})
	resp, err := http.Get(srv.URL + "/room/NOPE42")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != `{"roomId":null,"exists":false}` {
		t.Fatalf("body = %s", body)
	}
}

func TestJoinByCodeRegistersRoom(t *testing.T) {
	srv, m := newTestServer(t, room.Options{})
	conn := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"DUCKS1"}, "nickname": {"alice"}}))

	_, env := readEnvelope(t, conn, protocol.JSON)
	if env.T != protocol.MsgWelcome {
		t.Fatalf("first frame = %q", env.T)
	}
	welcome, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.RoomCode != "DUCKS1" || welcome.SessionID == "" {
		t.Fatalf("welcome = %+v", welcome)
	}

	got := getLookup(t, srv.URL, "DUCKS1")
	if !got.Exists || got.RoomID == nil || *got.RoomID != welcome.RoomID {
		t.Fatalf("lookup = %+v, want room %s", got, welcome.RoomID)
	}
	if _, ok := m.Get(welcome.RoomID); !ok {
		t.Fatalf("manager does not know room %s", welcome.RoomID)
	}

	// Joining by id lands in the same room.
	other := dial(t, websocketURL(t, srv.URL, url.Values{"roomId": {welcome.RoomID}, "nickname": {"bob_b"}}))
	_, env = readEnvelope(t, other, protocol.JSON)
	w2, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil || w2.RoomID != welcome.RoomID {
		t.Fatalf("second welcome = %+v, %v", w2, err)
	}
}

func TestInputMovesPlayer(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{})
	conn := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"MOVE01"}}))

	_, env := readEnvelope(t, conn, protocol.JSON)
	welcome, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	snap := protocol.NewSnapshot()
	_, env = readEnvelope(t, conn, protocol.JSON)
	p, err := protocol.DecodePayload[protocol.Patch](env)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if snap, err = protocol.ApplyPatch(snap, p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	start := snap.Players[welcome.SessionID]

	b, err := protocol.Encode(protocol.MsgInput, protocol.Input{VX: 100, VY: 0})
	if err != nil {
		t.Fatalf("encode input: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, env := readEnvelope(t, conn, protocol.JSON)
		if env.T != protocol.MsgState {
			continue
		}
		p, err := protocol.DecodePayload[protocol.Patch](env)
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if snap, err = protocol.ApplyPatch(snap, p); err != nil {
			t.Fatalf("apply: %v", err)
		}
		now := snap.Players[welcome.SessionID]
		if now.X != start.X {
			if dx := now.X - start.X; dx <= 0 || dx > 7+1e-9 || now.Y != start.Y {
				t.Fatalf("moved from %+v to %+v", start, now)
			}
			return
		}
	}
	t.Fatalf("player never moved")
}

func TestMsgpackSessionUsesBinaryFrames(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{})
	conn := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"BIN001"}, "codec": {"msgpack"}}))
	kind, env := readEnvelope(t, conn, protocol.Msgpack)
	if kind != websocket.BinaryMessage {
		t.Fatalf("frame kind = %d, want binary", kind)
	}
	if env.T != protocol.MsgWelcome {
		t.Fatalf("first frame = %q", env.T)
	}
}

func TestJoinFullRoomGetsError(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{MaxClients: 1})
	first := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"FULL01"}}))
	readEnvelope(t, first, protocol.JSON)

	second := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"FULL01"}}))
	_, env := readEnvelope(t, second, protocol.JSON)
	if env.T != protocol.MsgError {
		t.Fatalf("frame = %q, want error", env.T)
	}
	e, err := protocol.DecodePayload[protocol.Error](env)
	if err != nil || e.Code != protocol.ErrCodeRoomFull {
		t.Fatalf("error = %+v, %v", e, err)
	}
}

func TestHandshakeRejections(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{})
	cases := map[string]url.Values{
		"bad codec":    {"codec": {"xml"}},
		"unknown room": {"roomId": {"does-not-exist"}},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, q), nil)
			if err == nil {
				t.Fatalf("expected handshake failure")
			}
			if resp == nil || resp.StatusCode < 400 {
				t.Fatalf("unexpected response: %+v", resp)
			}
			resp.Body.Close()
		})
	}
}

func TestHealthAndRooms(t *testing.T) {
	srv, _ := newTestServer(t, room.Options{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %v %v", resp, err)
	}
	resp.Body.Close()

	conn := dial(t, websocketURL(t, srv.URL, url.Values{"roomCode": {"LIST01"}}))
	readEnvelope(t, conn, protocol.JSON)

	resp, err = http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	defer resp.Body.Close()
	var rooms []room.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Code != "LIST01" || rooms[0].Players != 1 {
		t.Fatalf("rooms = %+v", rooms)
	}
}
