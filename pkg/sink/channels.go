package sink

import (
	"sync"

	"github.com/psantana5/calltiming/pkg/timing"
)

// Channels sends each category to its own reporter. Unset or unknown
// categories go to the fallback.
type Channels struct {
	mu       sync.RWMutex
	named    map[string]timing.Reporter
	fallback timing.Reporter
}

// NewChannels creates a router with the given fallback; nil discards
func NewChannels(fallback timing.Reporter) *Channels {
	if fallback == nil {
		fallback = timing.Discard
	}
	return &Channels{
		named:    make(map[string]timing.Reporter),
		fallback: fallback,
	}
}

// Handle routes category to r
func (c *Channels) Handle(category string, r timing.Reporter) {
	c.mu.Lock()
	c.named[category] = r
	c.mu.Unlock()
}

func (c *Channels) Emit(category, line string) {
	c.mu.RLock()
	r, ok := c.named[category]
	c.mu.RUnlock()
	if !ok || category == "" {
		r = c.fallback
	}
	r.Emit(category, line)
}
