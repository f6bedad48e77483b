package sink

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/psantana5/calltiming/pkg/timing"
)

// Throttle limits how many lines per second each category may emit.
// Lines over the limit are dropped and counted.
type Throttle struct {
	next     timing.Reporter
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	dropped  atomic.Uint64
}

// NewThrottle creates a throttle in front of next
// perSecond: sustained lines per second per category
// burst: lines allowed at once
func NewThrottle(next timing.Reporter, perSecond float64, burst int) *Throttle {
	return &Throttle{
		next:     next,
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(perSecond),
		burst:    burst,
	}
}

func (t *Throttle) limiter(category string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[category]
	if !ok {
		l = rate.NewLimiter(t.rps, t.burst)
		t.limiters[category] = l
	}
	return l
}

func (t *Throttle) Emit(category, line string) {
	if !t.limiter(category).Allow() {
		t.dropped.Add(1)
		return
	}
	t.next.Emit(category, line)
}

// Dropped returns how many lines were discarded
func (t *Throttle) Dropped() uint64 {
	return t.dropped.Load()
}
