package staffimport

import (
	"errors"
	"sync"
	"time"

	"park-ops/internal/models"
	"park-ops/internal/utils"
)

var ErrSessionNotFound = errors.New("staffimport: import session not found")

// DefaultSessionTTL is how long an unfinished import is kept.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	machine *Machine
	created time.Time
}

// Manager keeps the imports started over HTTP, keyed by a random id.
type Manager struct {
	mu       sync.Mutex
	applier  Applier
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

func NewManager(applier Applier, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		applier:  applier,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Start loads names into a new machine and returns its id.
func (m *Manager) Start(kind models.StaffKind, names []string) (string, *Machine, error) {
	machine := NewMachine(m.applier)
	if err := machine.Load(kind, names); err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire()

	id := utils.GenerateUUID()
	m.sessions[id] = &session{machine: machine, created: m.now()}
	return id, machine, nil
}

func (m *Manager) Get(id string) (*Machine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.machine, nil
}

// Finish drops a session once its machine reached a terminal state.
func (m *Manager) Finish(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		_ = s.machine.Reset()
		delete(m.sessions, id)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) expire() {
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.created.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
