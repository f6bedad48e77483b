package timing

import (
	"fmt"
	"sort"
	"sync"
)

// Registry activates sites on first use and hands back the same site for
// the same identity afterwards. All sites from one registry share its
// depth counter, reporter, clock and observers.
type Registry struct {
	depth     *DepthCounter
	reporter  Reporter
	clock     Clock
	resolve   DisplayNameResolver
	observers []Observer

	mu        sync.RWMutex
	sites     map[string]*Site
	overrides map[string][]Option
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithReporter sets where reported lines go
func WithReporter(r Reporter) RegistryOption {
	return func(reg *Registry) {
		reg.reporter = r
	}
}

// WithDepthCounter replaces the process-wide depth counter
func WithDepthCounter(d *DepthCounter) RegistryOption {
	return func(reg *Registry) {
		reg.depth = d
	}
}

// WithClock replaces the system clock
func WithClock(c Clock) RegistryOption {
	return func(reg *Registry) {
		reg.clock = c
	}
}

// WithResolver replaces DefaultDisplayName
func WithResolver(r DisplayNameResolver) RegistryOption {
	return func(reg *Registry) {
		reg.resolve = r
	}
}

// WithObservers attaches observers to every site
func WithObservers(o ...Observer) RegistryOption {
	return func(reg *Registry) {
		reg.observers = append(reg.observers, o...)
	}
}

// WithOverrides applies extra options, keyed by identity key or display
// name, after the options given at registration.
func WithOverrides(overrides map[string][]Option) RegistryOption {
	return func(reg *Registry) {
		for k, v := range overrides {
			reg.overrides[k] = append(reg.overrides[k], v...)
		}
	}
}

// NewRegistry creates a registry
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		depth:     SharedDepth(),
		reporter:  Discard,
		clock:     SystemClock,
		resolve:   DefaultDisplayName,
		sites:     make(map[string]*Site),
		overrides: make(map[string][]Option),
	}
	for _, opt := range opts {
		opt(reg)
	}
	if reg.resolve == nil {
		reg.resolve = DefaultDisplayName
	}
	return reg
}

// Depth returns the counter shared by the registry's sites
func (r *Registry) Depth() *DepthCounter {
	return r.depth
}

// Register returns the site for id, activating it with opts on first use.
// Later calls ignore opts.
func (r *Registry) Register(id SiteIdentity, opts ...Option) *Site {
	key := id.Key()

	r.mu.RLock()
	site, ok := r.sites[key]
	r.mu.RUnlock()
	if ok {
		return site
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if site, ok := r.sites[key]; ok {
		return site
	}

	prefix := prefixTypeName(opts)
	name := r.resolve(id, prefix)
	all := opts
	if extra := r.overridesFor(key, name); len(extra) > 0 {
		all = append(append([]Option{}, opts...), extra...)
		// an override that flips the type prefix needs the other rendering
		if p := prefixTypeName(all); p != prefix {
			name = r.resolve(id, p)
		}
	}
	cfg := NewSiteConfig(id, resolvedAs(name), all...)
	site = NewSite(cfg, r.depth, r.reporter, r.clock, r.observers...)
	r.sites[key] = site
	return site
}

func resolvedAs(name string) DisplayNameResolver {
	return func(SiteIdentity, bool) string {
		return name
	}
}

func (r *Registry) overridesFor(key, displayName string) []Option {
	var extra []Option
	extra = append(extra, r.overrides[displayName]...)
	if key != displayName {
		extra = append(extra, r.overrides[key]...)
	}
	return extra
}

// Func registers the site for a function or method value. A value the
// runtime cannot name is registered under its Go type instead.
func (r *Registry) Func(fn any, opts ...Option) *Site {
	id := IdentityOf(fn)
	if id == (SiteIdentity{}) {
		id = Func(fmt.Sprintf("%T", fn))
	}
	return r.Register(id, opts...)
}

// Cumulative registers a cumulative site. Unless opts say otherwise it
// does not take part in depth tracking.
func (r *Registry) Cumulative(id SiteIdentity, opts ...Option) *Site {
	base := []Option{Cumulative(), WithDepthTracking(false)}
	return r.Register(id, append(base, opts...)...)
}

// Lookup returns a registered site by identity key
func (r *Registry) Lookup(key string) (*Site, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	site, ok := r.sites[key]
	return site, ok
}

// Sites returns all registered sites ordered by display name
func (r *Registry) Sites() []*Site {
	r.mu.RLock()
	sites := make([]*Site, 0, len(r.sites))
	for _, s := range r.sites {
		sites = append(sites, s)
	}
	r.mu.RUnlock()

	sort.Slice(sites, func(i, j int) bool {
		return sites[i].DisplayName() < sites[j].DisplayName()
	})
	return sites
}

// Snapshot returns the stats of every registered site
func (r *Registry) Snapshot() []SiteStats {
	sites := r.Sites()
	stats := make([]SiteStats, 0, len(sites))
	for _, s := range sites {
		stats = append(stats, s.Snapshot())
	}
	return stats
}
