package network

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"quack/game"
	"quack/protocol"
	"quack/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20
	sendQueueSize  = 64
)

var (
	errSessionClosed = errors.New("network: session closed")
	errSlowConsumer  = errors.New("network: send queue full")
)

// session adapts one websocket connection to room.Conn. Writes go through
// a queue drained by writePump so the room goroutine never blocks on a
// socket.
type session struct {
	id      string
	conn    *websocket.Conn
	codec   protocol.Codec
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	logger  *log.Logger

	room    *room.Room
	dropped int
}

func newSession(conn *websocket.Conn, codec protocol.Codec, limiter *rate.Limiter, logger *log.Logger) *session {
	return &session{
		conn:    conn,
		codec:   codec,
		send:    make(chan []byte, sendQueueSize),
		closed:  make(chan struct{}),
		limiter: limiter,
		logger:  logger,
	}
}

func (s *session) Codec() protocol.Codec { return s.codec }

func (s *session) Send(b []byte) error {
	select {
	case <-s.closed:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- b:
		return nil
	default:
		return errSlowConsumer
	}
}

func (s *session) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *session) messageType() int {
	if s.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case b := <-s.send:
			if err := s.write(s.messageType(), b); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.closed:
			// Flush what the room queued before closing, e.g. an error frame.
			for {
				select {
				case b := <-s.send:
					if err := s.write(s.messageType(), b); err != nil {
						return
					}
				default:
					_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (s *session) write(messageType int, b []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, b)
}

// readPump forwards client frames to the room until the connection fails.
func (s *session) readPump() {
	defer func() {
		if err := s.room.Send(room.Leave{PlayerID: s.id}); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			s.logger.Printf("leave %s: %v", s.id, err)
		}
		s.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("read %s: %v", s.id, err)
			}
			return
		}
		if !s.limiter.Allow() {
			s.dropped++
			if s.dropped == 1 || s.dropped%100 == 0 {
				s.logger.Printf("rate limited %s (%d dropped)", s.id, s.dropped)
			}
			continue
		}
		cmd, err := s.decode(msg)
		if err != nil {
			s.logger.Printf("discarding malformed message from %s: %v", s.id, err)
			continue
		}
		if cmd == nil {
			continue
		}
		if err := s.room.Send(cmd); err != nil {
			return
		}
	}
}

// decode turns a client frame into a room command. Unknown types decode to
// nil.
func (s *session) decode(b []byte) (any, error) {
	env, err := s.codec.DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.T {
	case protocol.MsgInput:
		in, err := protocol.DecodePayload[protocol.Input](env)
		if err != nil {
			return nil, err
		}
		return room.Input{PlayerID: s.id, Input: game.Input{VX: in.VX, VY: in.VY}}, nil
	case protocol.MsgNickname:
		name, err := protocol.DecodePayload[protocol.SetNickname](env)
		if err != nil {
			return nil, err
		}
		return room.SetNickname{PlayerID: s.id, Nickname: name}, nil
	case protocol.MsgPhase:
		phase, err := protocol.DecodePayload[protocol.SetPhase](env)
		if err != nil {
			return nil, err
		}
		return room.SetPhase{PlayerID: s.id, Phase: phase}, nil
	case protocol.MsgOptions:
		opts, err := protocol.DecodePayload[protocol.SetGameOptions](env)
		if err != nil {
			return nil, err
		}
		colors, count := opts.Fields()
		return room.SetOptions{PlayerID: s.id, Update: game.OptionsUpdate{Colors: colors, DucksCount: count}}, nil
	case protocol.MsgResync:
		return room.Resync{PlayerID: s.id}, nil
	}
	return nil, nil
}
