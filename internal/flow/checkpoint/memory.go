package checkpoint

import (
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and ephemeral sessions.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]map[string]memEntry // session -> nodeID -> entry
	seq      map[string]int                 // session -> last sequence
	closed   bool
}

type memEntry struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]map[string]memEntry),
		seq:      make(map[string]int),
	}
}

// Save implements Store.
func (m *Memory) Save(session, nodeID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if m.sessions[session] == nil {
		m.sessions[session] = make(map[string]memEntry)
	}
	m.seq[session]++

	stored := make([]byte, len(data))
	copy(stored, data)
	m.sessions[session][nodeID] = memEntry{
		data:      stored,
		sequence:  m.seq[session],
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *Memory) Load(session, nodeID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	entry, ok := m.sessions[session][nodeID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

// List implements Store.
func (m *Memory) List(session string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	entries, ok := m.sessions[session]
	if !ok {
		return nil, nil
	}

	infos := make([]Info, 0, len(entries))
	for nodeID, e := range entries {
		infos = append(infos, Info{
			Session:   session,
			NodeID:    nodeID,
			Sequence:  e.sequence,
			Timestamp: e.timestamp,
			Size:      int64(len(e.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Sequence < infos[j].Sequence })
	return infos, nil
}

// DeleteSession implements Store.
func (m *Memory) DeleteSession(session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.sessions, session)
	delete(m.seq, session)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = nil
	m.seq = nil
	return nil
}

// Len reports the total number of stored checkpoints, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, entries := range m.sessions {
		n += len(entries)
	}
	return n
}
