package timing

import (
	"sync/atomic"
	"time"
)

// Invocation is the stopwatch for one call of a site. It belongs to the
// caller and is never shared between calls.
type Invocation struct {
	site      *Site
	StartedAt time.Time
	ended     atomic.Bool
}

func newInvocation(s *Site) *Invocation {
	return &Invocation{
		site:      s,
		StartedAt: s.clock.Now(),
	}
}

// Elapsed returns the time since the invocation began
func (i *Invocation) Elapsed() time.Duration {
	return i.site.clock.Now().Sub(i.StartedAt)
}

// End stops the stopwatch and hands the elapsed time to the site.
// Ending twice panics with ErrInvocationEnded.
func (i *Invocation) End() Decision {
	return i.EndWith(i.Elapsed())
}

// EndWith ends the invocation with an externally measured duration.
func (i *Invocation) EndWith(elapsed time.Duration) Decision {
	if !i.ended.CompareAndSwap(false, true) {
		panic(ErrInvocationEnded)
	}
	return i.site.end(elapsed)
}
