package utils

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDClock hands out millisecond timestamps that never repeat or go backwards,
// even when two calls land in the same millisecond.
type IDClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDClock() *IDClock {
	return &IDClock{now: time.Now}
}

// NewIDClockAt is NewIDClock with a custom time source.
func NewIDClockAt(now func() time.Time) *IDClock {
	return &IDClock{now: now}
}

// Next returns an id greater than every id handed out before, and greater
// than floor.
func (c *IDClock) Next(floor int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	c.last = id
	return id
}

// GenerateUUID creates a random UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}
