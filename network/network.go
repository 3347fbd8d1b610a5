package network

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"quack/protocol"
	"quack/room"
)

type ServerConfig struct {
	Logger *log.Logger
	// AllowedOrigin restricts browser origins; empty allows any.
	AllowedOrigin string
	InputRate     float64
	InputBurst    int
	// DefaultCodec is used when the client does not ask for one.
	DefaultCodec string
}

type Server struct {
	manager  *room.Manager
	logger   *log.Logger
	upgrader websocket.Upgrader
	cfg      ServerConfig
}

func NewServer(manager *room.Manager, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.InputRate <= 0 {
		cfg.InputRate = 120
	}
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = 30
	}
	s := &Server{manager: manager, logger: logger, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/rooms", s.handleRooms).Methods("GET")
	r.HandleFunc("/room/{code}", s.handleLookup).Methods("GET")
	r.HandleFunc("/ws", s.handleWS)
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return s.cfg.AllowedOrigin == "" || origin == "" || origin == s.cfg.AllowedOrigin
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.manager.ListRooms())
}

// handleLookup answers whether a shareable code belongs to a live room.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	resp := protocol.LookupResponse{}
	if id, ok := s.manager.Lookup(code); ok {
		resp.RoomID = &id
		resp.Exists = true
	}
	writeJSON(w, resp)
}

// handleWS joins a room by id (roomId) or by code (roomCode), creating the
// room when the code is unknown.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("codec")
	if name == "" {
		name = s.cfg.DefaultCodec
	}
	codec, err := protocol.CodecByName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	roomID := q.Get("roomId")
	if roomID != "" {
		if _, ok := s.manager.Get(roomID); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("upgrade: %v", err)
		return
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.InputRate), s.cfg.InputBurst)
	sess := newSession(conn, codec, limiter, s.logger)
	go sess.writePump()

	nickname := q.Get("nickname")
	var rm *room.Room
	var playerID string
	if roomID != "" {
		rm, playerID, err = s.manager.Join(roomID, sess, nickname)
	} else {
		rm, playerID, err = s.manager.JoinOrCreate(q.Get("roomCode"), sess, nickname)
	}
	if err != nil {
		s.logger.Printf("join failed: %v", err)
		s.reject(sess, err)
		return
	}
	sess.id = playerID
	sess.room = rm
	sess.readPump()
}

func (s *Server) reject(sess *session, err error) {
	msg := protocol.Error{Message: err.Error()}
	switch {
	case errors.Is(err, room.ErrRoomFull):
		msg.Code = protocol.ErrCodeRoomFull
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrRoomClosed):
		msg.Code = protocol.ErrCodeRoomNotFound
	default:
		msg.Code = protocol.ErrCodeJoinFailed
	}
	if b, err := sess.codec.Encode(protocol.MsgError, msg); err == nil {
		_ = sess.Send(b)
	}
	sess.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
