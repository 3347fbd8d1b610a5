package room

import (
	"crypto/rand"
	"log"
	"math/big"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
)

// RoomInfo is returned by the API for the server list.
type RoomInfo struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Manager holds rooms by id and keeps the code registry in step with room
// lifetimes. Rooms are created on first join and removed when the last
// client leaves.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	registry Registry
	opts     Options
	log      *log.Logger
	closed   bool
}

func NewManager(registry Registry, opts Options) *Manager {
	if registry == nil {
		registry = NewMemoryRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		registry: registry,
		opts:     opts,
		log:      logger,
	}
}

// Get returns the room with the given id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Lookup resolves a shareable code to a room id.
func (m *Manager) Lookup(code string) (string, bool) {
	return m.registry.Lookup(normalizeCode(code))
}

// CreateRoom starts a room under code, or under a fresh unique code when
// code is empty. An existing room with the same code is returned as is.
func (m *Manager) CreateRoom(code string) (*Room, error) {
	code = normalizeCode(code)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrRoomClosed
	}
	if code == "" {
		for {
			code = generateCode(6)
			if _, taken := m.registry.Lookup(code); !taken {
				break
			}
		}
	} else if id, ok := m.registry.Lookup(code); ok {
		if r, ok := m.rooms[id]; ok {
			return r, nil
		}
	}

	r := New(uuid.NewString(), code, m.opts)
	r.OnEmpty = m.removeRoom
	m.rooms[r.ID] = r
	m.registry.Register(code, r.ID)
	go r.Run()
	m.log.Printf("room %s created (%s)", code, r.ID)
	return r, nil
}

// Join adds conn to an existing room.
func (m *Manager) Join(id string, conn Conn, nickname string) (*Room, string, error) {
	r, ok := m.Get(id)
	if !ok {
		return nil, "", errors.Wrapf(ErrRoomNotFound, "id %s", id)
	}
	playerID, err := r.Join(conn, nickname)
	if err != nil {
		return nil, "", err
	}
	return r, playerID, nil
}

// JoinOrCreate joins the room registered under code, creating it first if
// nobody holds the code. A room that closes between lookup and join is
// replaced once.
func (m *Manager) JoinOrCreate(code string, conn Conn, nickname string) (*Room, string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		r, err := m.CreateRoom(code)
		if err != nil {
			return nil, "", err
		}
		playerID, err := r.Join(conn, nickname)
		if err == nil {
			return r, playerID, nil
		}
		if !errors.Is(err, ErrRoomClosed) {
			return nil, "", err
		}
		lastErr = err
	}
	return nil, "", lastErr
}

// removeRoom runs on the room's own goroutine via OnEmpty.
func (m *Manager) removeRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return
	}
	r.Stop()
	delete(m.rooms, id)
	if current, ok := m.registry.Lookup(r.Code); ok && current == id {
		m.registry.Unregister(r.Code)
	}
	m.log.Printf("room %s disposed (%s)", r.Code, id)
}

// ListRooms returns all active rooms with code and player count.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Code: r.Code, Players: r.NumPlayers()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Close stops every room and waits for their loops to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for id, r := range m.rooms {
		rooms = append(rooms, r)
		m.registry.Unregister(r.Code)
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	wg := sizedwaitgroup.New(runtime.NumCPU())
	for _, r := range rooms {
		wg.Add()
		go func(r *Room) {
			defer wg.Done()
			r.Stop()
			<-r.Done()
		}(r)
	}
	wg.Wait()
	m.log.Printf("stopped %d rooms", len(rooms))
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
