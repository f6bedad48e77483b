package timing

import (
	"errors"
	"sync"
	"time"
)

// ErrInvocationEnded is the panic value when an invocation is ended twice
var ErrInvocationEnded = errors.New("timing: invocation already ended")

// Clock tells the wall-clock time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads time.Now
var SystemClock Clock = systemClock{}

// Outcome of evaluating a completed invocation
type Outcome int

const (
	Suppressed Outcome = iota
	Reported
)

func (o Outcome) String() string {
	if o == Reported {
		return "reported"
	}
	return "suppressed"
}

// Decision describes what a site did with one completed invocation.
// Cumulative, Count and Rate are only filled in for cumulative sites.
type Decision struct {
	Outcome    Outcome
	Mode       Mode
	Elapsed    time.Duration
	Cumulative time.Duration
	Count      int64
	Rate       float64
	Depth      int
	Line       string
}

// Reported is shorthand for d.Outcome == Reported
func (d Decision) Reported() bool {
	return d.Outcome == Reported
}

// Observer sees every completed invocation of every site it is attached
// to, whether or not a line was reported.
type Observer interface {
	ObserveInvocation(site *Site, d Decision)
}

// Site holds the configuration and running totals for one instrumented
// operation.
type Site struct {
	cfg       SiteConfig
	depth     *DepthCounter
	reporter  Reporter
	clock     Clock
	observers []Observer

	mu           sync.Mutex
	cumulative   time.Duration
	count        int64
	lastReported time.Time
}

// SiteStats is a point-in-time copy of a site's totals
type SiteStats struct {
	DisplayName  string        `json:"display_name" yaml:"display_name"`
	Category     string        `json:"category,omitempty" yaml:"category,omitempty"`
	Mode         string        `json:"mode" yaml:"mode"`
	Active       time.Duration `json:"active" yaml:"active"`
	Count        int64         `json:"count" yaml:"count"`
	Cumulative   time.Duration `json:"cumulative" yaml:"cumulative"`
	LastReported time.Time     `json:"last_reported" yaml:"last_reported"`
}

// NewSite activates a site. A nil depth uses SharedDepth, a nil reporter
// discards and a nil clock uses SystemClock.
func NewSite(cfg SiteConfig, depth *DepthCounter, reporter Reporter, clock Clock, observers ...Observer) *Site {
	if depth == nil {
		depth = SharedDepth()
	}
	if reporter == nil {
		reporter = Discard
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Site{
		cfg:          cfg,
		depth:        depth,
		reporter:     reporter,
		clock:        clock,
		observers:    observers,
		lastReported: clock.Now(),
	}
}

// Config returns the site's fixed configuration
func (s *Site) Config() SiteConfig {
	return s.cfg
}

// DisplayName returns the label used in reports
func (s *Site) DisplayName() string {
	return s.cfg.DisplayName
}

// Begin signals that an invocation started. The returned Invocation must
// be ended exactly once.
func (s *Site) Begin() *Invocation {
	if s.cfg.TrackDepth {
		s.depth.Increase()
	}
	return newInvocation(s)
}

// end is the completion signal: it releases the depth level, applies the
// reporting rule and emits the line when the rule fires.
func (s *Site) end(elapsed time.Duration) Decision {
	if s.cfg.TrackDepth {
		s.depth.Decrease()
	}

	d := Decision{Mode: s.cfg.Mode, Elapsed: elapsed}
	if s.cfg.Mode == ModeCumulative {
		s.accumulate(&d)
	} else if elapsed >= s.cfg.Threshold {
		d.Outcome = Reported
	}

	if d.Reported() {
		d.Depth = s.depth.Depth()
		if s.cfg.Mode == ModeCumulative {
			d.Line = CumulativeLine(d.Depth, s.cfg.DisplayName, elapsed, d.Cumulative, d.Count)
		} else {
			d.Line = ThresholdLine(d.Depth, s.cfg.DisplayName, elapsed)
		}
		s.reporter.Emit(s.cfg.Category, d.Line)
	}

	for _, o := range s.observers {
		o.ObserveInvocation(s, d)
	}
	return d
}

func (s *Site) accumulate(d *Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.cumulative += d.Elapsed
	d.Count = s.count
	d.Cumulative = s.cumulative
	d.Rate = Rate(s.count, s.cumulative)

	now := s.clock.Now()
	if now.Sub(s.lastReported) < s.cfg.ReportFrequency {
		return
	}
	s.lastReported = now
	d.Outcome = Reported
}

// Snapshot copies the site's current totals
func (s *Site) Snapshot() SiteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SiteStats{
		DisplayName:  s.cfg.DisplayName,
		Category:     s.cfg.Category,
		Mode:         s.cfg.Mode.String(),
		Active:       s.cfg.Active(),
		Count:        s.count,
		Cumulative:   s.cumulative,
		LastReported: s.lastReported,
	}
}
