package room

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"

	"volley/metrics"
)

// RoomInfo is returned by the API for the room list.
type RoomInfo struct {
	Code    string `json:"code"`
	Clients int    `json:"clients"`
}

// Manager holds rooms by code. Rooms are created on first reference and
// removed when the last endpoint leaves. It is injectable, not a singleton;
// whatever composes the server owns its lifetime.
type Manager struct {
	mu    sync.RWMutex
	log   *logrus.Logger
	rooms map[string]*Room
}

func NewManager(log *logrus.Logger) *Manager {
	return &Manager{
		log:   log,
		rooms: make(map[string]*Room),
	}
}

// GetOrCreateRoom returns the room for the given code, creating it if
// needed. An unknown code is never an error, it just names a new room.
func (m *Manager) GetOrCreateRoom(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		return r
	}
	return m.createLocked(code)
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom generates a unique 6-char code, creates the room, and returns
// the code. Collisions with live rooms are regenerated.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.createLocked(code)
		return code
	}
}

func (m *Manager) createLocked(code string) *Room {
	r := New(code, m.log)
	r.OnEmpty = func(c string) {
		m.Release(c)
	}
	m.rooms[code] = r
	go r.Run()
	metrics.ActiveRooms.Inc()
	m.log.WithField("room", code).Info("room created")
	return r
}

// Release removes a room once empty. Idempotent.
func (m *Manager) Release(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		r.Stop()
		delete(m.rooms, code)
		metrics.ActiveRooms.Dec()
		m.log.WithField("room", code).Info("room released")
	}
}

// ListRooms returns all active rooms with code and endpoint count.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Clients: r.NumClients()})
	}
	return out
}

// Shutdown destroys every room: endpoints closed, simulations stopped.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
		metrics.ActiveRooms.Dec()
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
