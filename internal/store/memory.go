package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps every collection in process memory. The CLI uses it to
// work on backup files; tests use it as a stand-in for Redis or SQL.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]json.RawMessage
	emitter *Emitter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]json.RawMessage),
		emitter: NewEmitter(),
	}
}

func (m *MemoryStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.values[path]), nil
}

func (m *MemoryStore) Set(ctx context.Context, path string, value json.RawMessage) error {
	if err := checkPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	m.put(path, value)
	m.mu.Unlock()

	m.emitter.Emit(Snapshot{Path: path, Value: clone(value)})
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, fn UpdateFunc) error {
	if err := checkPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	next, err := fn(clone(m.values[path]))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.put(path, next)
	m.mu.Unlock()

	m.emitter.Emit(Snapshot{Path: path, Value: clone(next)})
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	initial := Snapshot{Path: path, Value: clone(m.values[path])}
	ch := m.emitter.Subscribe(ctx, path, &initial)
	m.mu.Unlock()
	return ch, nil
}

func (m *MemoryStore) put(path string, value json.RawMessage) {
	if IsUnset(value) {
		delete(m.values, path)
		return
	}
	m.values[path] = clone(value)
}

func clone(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
