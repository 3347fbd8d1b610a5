package room

import "sync"

// Registry maps shareable room codes to room ids.
type Registry interface {
	Register(code, id string)
	Lookup(code string) (string, bool)
	Unregister(code string)
}

type MemoryRegistry struct {
	mu    sync.RWMutex
	codes map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{codes: make(map[string]string)}
}

func (m *MemoryRegistry) Register(code, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = id
}

func (m *MemoryRegistry) Lookup(code string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	return id, ok
}

func (m *MemoryRegistry) Unregister(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, code)
}
