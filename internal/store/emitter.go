package store

import (
	"context"
	"sync"
)

// Emitter fans snapshots out to in-process subscribers, one channel per
// subscriber, keyed by path.
type Emitter struct {
	clients map[string][]chan Snapshot
	mu      sync.RWMutex
}

func NewEmitter() *Emitter {
	return &Emitter{clients: make(map[string][]chan Snapshot)}
}

// Subscribe registers a client for path. The channel is closed once ctx is done.
func (e *Emitter) Subscribe(ctx context.Context, path string, initial *Snapshot) <-chan Snapshot {
	ch := make(chan Snapshot, 16)
	if initial != nil {
		ch <- *initial
	}

	e.mu.Lock()
	e.clients[path] = append(e.clients[path], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(path, ch)
	}()

	return ch
}

// Emit broadcasts to every subscriber of snap.Path. Slow subscribers whose
// buffer is full miss the update; the next snapshot carries the full value.
func (e *Emitter) Emit(snap Snapshot) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.clients[snap.Path] {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (e *Emitter) remove(path string, ch chan Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[path]
	for i, c := range clients {
		if c == ch {
			e.clients[path] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.clients[path]) == 0 {
		delete(e.clients, path)
	}
}

// ClientCount returns the number of subscribers for path.
func (e *Emitter) ClientCount(path string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[path])
}
