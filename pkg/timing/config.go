package timing

import (
	"fmt"
	"time"
)

// Mode selects how a site decides to report
type Mode int

const (
	// ModeThreshold reports any single call slower than the threshold
	ModeThreshold Mode = iota
	// ModeCumulative reports lifetime totals at a bounded cadence
	ModeCumulative
)

func (m Mode) String() string {
	switch m {
	case ModeThreshold:
		return "threshold"
	case ModeCumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

const (
	DefaultThreshold       = 600 * time.Millisecond
	DefaultReportFrequency = 5 * time.Second
)

// SiteConfig is fixed when a site is registered
type SiteConfig struct {
	Category        string
	Mode            Mode
	Threshold       time.Duration
	ReportFrequency time.Duration
	PrefixTypeName  bool
	TrackDepth      bool
	DisplayName     string
}

// Active returns the duration that drives the site's decisions: the
// threshold or the report frequency, depending on mode.
func (c SiteConfig) Active() time.Duration {
	if c.Mode == ModeCumulative {
		return c.ReportFrequency
	}
	return c.Threshold
}

func (c SiteConfig) String() string {
	return fmt.Sprintf("%s mode=%s active=%s category=%q depth=%t",
		c.DisplayName, c.Mode, c.Active(), c.Category, c.TrackDepth)
}

// settings collects options before they are frozen into a SiteConfig
type settings struct {
	category        string
	threshold       time.Duration
	reportFrequency time.Duration
	frequencySet    bool
	cumulative      bool
	prefixTypeName  bool
	trackDepth      bool
}

func defaultSettings() settings {
	return settings{
		threshold:       DefaultThreshold,
		reportFrequency: DefaultReportFrequency,
		trackDepth:      true,
	}
}

// Option configures a site at registration
type Option func(*settings)

// WithCategory routes the site's lines to the named channel
func WithCategory(category string) Option {
	return func(s *settings) {
		s.category = category
	}
}

// WithThreshold sets the minimum duration a single call must take to be
// reported. It has no effect on cumulative sites.
func WithThreshold(d time.Duration) Option {
	return func(s *settings) {
		s.threshold = d
	}
}

// WithReportFrequency switches the site to cumulative mode and sets the
// minimum time between reports.
func WithReportFrequency(d time.Duration) Option {
	return func(s *settings) {
		s.reportFrequency = d
		s.frequencySet = true
	}
}

// Cumulative switches the site to cumulative mode with the current (or
// default) report frequency.
func Cumulative() Option {
	return func(s *settings) {
		s.cumulative = true
	}
}

// WithTypePrefix includes the owning type in the label
func WithTypePrefix() Option {
	return func(s *settings) {
		s.prefixTypeName = true
	}
}

// WithDepthTracking controls participation in the shared depth counter
func WithDepthTracking(track bool) Option {
	return func(s *settings) {
		s.trackDepth = track
	}
}

func (s settings) mode() Mode {
	if s.cumulative || s.frequencySet {
		return ModeCumulative
	}
	return ModeThreshold
}

func prefixTypeName(opts []Option) bool {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s.prefixTypeName
}

// NewSiteConfig applies opts over the defaults and resolves the label.
func NewSiteConfig(id SiteIdentity, resolve DisplayNameResolver, opts ...Option) SiteConfig {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if resolve == nil {
		resolve = DefaultDisplayName
	}

	return SiteConfig{
		Category:        s.category,
		Mode:            s.mode(),
		Threshold:       s.threshold,
		ReportFrequency: s.reportFrequency,
		PrefixTypeName:  s.prefixTypeName,
		TrackDepth:      s.trackDepth,
		DisplayName:     resolve(id, s.prefixTypeName),
	}
}
