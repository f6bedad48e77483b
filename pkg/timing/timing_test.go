package timing

import (
	"sync"
	"time"
)

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type emitted struct {
	category string
	line     string
}

// recorder is a Reporter that keeps every line
type recorder struct {
	mu    sync.Mutex
	lines []emitted
}

func (r *recorder) Emit(category, line string) {
	r.mu.Lock()
	r.lines = append(r.lines, emitted{category, line})
	r.mu.Unlock()
}

func (r *recorder) Lines() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.lines...)
}
