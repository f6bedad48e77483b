package timing

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSite(t *testing.T, clock Clock, opts ...Option) (*Site, *recorder, *DepthCounter) {
	t.Helper()
	rec := &recorder{}
	depth := NewDepthCounter()
	cfg := NewSiteConfig(Method("Store", "Get"), nil, opts...)
	return NewSite(cfg, depth, rec, clock), rec, depth
}

func TestThresholdSuppressesFastCalls(t *testing.T) {
	site, rec, _ := newTestSite(t, newFakeClock())

	d := site.Begin().EndWith(300 * time.Millisecond)

	assert.Equal(t, Suppressed, d.Outcome)
	assert.Empty(t, d.Line)
	assert.Empty(t, rec.Lines())
}

func TestThresholdReportsSlowCalls(t *testing.T) {
	site, rec, _ := newTestSite(t, newFakeClock(), WithCategory("store"))

	d := site.Begin().EndWith(1200 * time.Millisecond)

	assert.True(t, d.Reported())
	lines := rec.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "store", lines[0].category)
	assert.True(t, strings.HasSuffix(lines[0].line, "1.2"))
	assert.Contains(t, lines[0].line, " --> Get():")
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	site, rec, _ := newTestSite(t, newFakeClock(), WithThreshold(time.Second))

	site.Begin().EndWith(999 * time.Millisecond)
	site.Begin().EndWith(time.Second)

	assert.Len(t, rec.Lines(), 1)
}

func TestEveryThresholdCallAtOrAboveReports(t *testing.T) {
	site, rec, _ := newTestSite(t, newFakeClock(), WithThreshold(100*time.Millisecond))

	for ms := 0; ms < 200; ms += 10 {
		site.Begin().EndWith(time.Duration(ms) * time.Millisecond)
	}

	assert.Len(t, rec.Lines(), 10)
}

func TestCumulativeWithinWindowReportsNothing(t *testing.T) {
	clock := newFakeClock()
	site, rec, _ := newTestSite(t, clock, WithReportFrequency(5*time.Second))

	for i := 0; i < 3; i++ {
		clock.Advance(300 * time.Millisecond)
		d := site.Begin().EndWith(100 * time.Millisecond)
		assert.Equal(t, Suppressed, d.Outcome)
	}

	assert.Empty(t, rec.Lines())
	stats := site.Snapshot()
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 300*time.Millisecond, stats.Cumulative)
}

func TestCumulativeReportsOncePerInterval(t *testing.T) {
	clock := newFakeClock()
	site, rec, _ := newTestSite(t, clock, WithReportFrequency(5*time.Second))

	for i := 0; i < 3; i++ {
		site.Begin().EndWith(100 * time.Millisecond)
	}
	clock.Advance(5 * time.Second)

	d := site.Begin().EndWith(100 * time.Millisecond)
	require.True(t, d.Reported())
	assert.Equal(t, int64(4), d.Count)
	assert.Equal(t, 400*time.Millisecond, d.Cumulative)
	assert.InDelta(t, 10.0, d.Rate, 1e-9)
	assert.True(t, strings.HasSuffix(d.Line, "0.1 [400ms] x [4 @ 10/s]"), d.Line)

	// the next call inside the new window is suppressed
	d = site.Begin().EndWith(100 * time.Millisecond)
	assert.Equal(t, Suppressed, d.Outcome)
	assert.Len(t, rec.Lines(), 1)
}

func TestCumulativeTotalsAreNeverReset(t *testing.T) {
	clock := newFakeClock()
	site, _, _ := newTestSite(t, clock, WithReportFrequency(time.Second))

	clock.Advance(time.Second)
	first := site.Begin().EndWith(200 * time.Millisecond)
	clock.Advance(time.Second)
	second := site.Begin().EndWith(200 * time.Millisecond)

	require.True(t, first.Reported())
	require.True(t, second.Reported())
	assert.Equal(t, int64(2), second.Count)
	assert.Equal(t, 400*time.Millisecond, second.Cumulative)
}

func TestCumulativeFlagUsesDefaultFrequency(t *testing.T) {
	site, _, _ := newTestSite(t, newFakeClock(), Cumulative())

	cfg := site.Config()
	assert.Equal(t, ModeCumulative, cfg.Mode)
	assert.Equal(t, DefaultReportFrequency, cfg.ReportFrequency)
	assert.Equal(t, DefaultReportFrequency, cfg.Active())
}

func TestThresholdIsDefaultMode(t *testing.T) {
	site, _, _ := newTestSite(t, newFakeClock(), WithThreshold(time.Second))

	cfg := site.Config()
	assert.Equal(t, ModeThreshold, cfg.Mode)
	assert.Equal(t, time.Second, cfg.Active())
	assert.True(t, cfg.TrackDepth)
}

func TestCumulativeZeroElapsedRendersInfinity(t *testing.T) {
	site, _, _ := newTestSite(t, newFakeClock(), WithReportFrequency(0))

	d := site.Begin().EndWith(0)

	require.True(t, d.Reported())
	assert.True(t, strings.HasSuffix(d.Line, "x [1 @ ∞/s]"), d.Line)
}

func TestCumulativeConcurrentUpdatesAreNotLost(t *testing.T) {
	site, _, depth := newTestSite(t, newFakeClock(), WithReportFrequency(time.Hour))

	const workers, calls = 32, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				site.Begin().EndWith(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	stats := site.Snapshot()
	assert.Equal(t, int64(workers*calls), stats.Count)
	assert.Equal(t, time.Duration(workers*calls)*time.Millisecond, stats.Cumulative)
	assert.Equal(t, 0, depth.Depth())
}

func TestDepthIsTrackedAroundInvocation(t *testing.T) {
	site, rec, depth := newTestSite(t, newFakeClock(), WithThreshold(0))

	outer := site.Begin()
	inner := site.Begin()
	assert.Equal(t, 2, depth.Depth())

	d := inner.EndWith(time.Second)
	assert.Equal(t, 1, d.Depth)
	outer.EndWith(time.Second)
	assert.Equal(t, 0, depth.Depth())

	lines := rec.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0].line, "\t --> Get():"))
	assert.True(t, strings.HasPrefix(lines[1].line, " --> Get():"))
}

func TestDepthTrackingDisabled(t *testing.T) {
	site, _, depth := newTestSite(t, newFakeClock(), WithDepthTracking(false))

	inv := site.Begin()
	assert.Equal(t, 0, depth.Depth())
	inv.EndWith(0)
	assert.Equal(t, 0, depth.Depth())
}

func TestEndTwicePanics(t *testing.T) {
	site, _, _ := newTestSite(t, newFakeClock())

	inv := site.Begin()
	inv.EndWith(0)

	assert.PanicsWithValue(t, ErrInvocationEnded, func() {
		inv.EndWith(0)
	})
}

func TestInvocationMeasuresWithClock(t *testing.T) {
	clock := newFakeClock()
	site, rec, _ := newTestSite(t, clock)

	inv := site.Begin()
	clock.Advance(750 * time.Millisecond)
	d := inv.End()

	assert.Equal(t, 750*time.Millisecond, d.Elapsed)
	require.Len(t, rec.Lines(), 1)
	assert.True(t, strings.HasSuffix(rec.Lines()[0].line, "0.75"))
}

type countingObserver struct {
	mu        sync.Mutex
	decisions []Decision
}

func (o *countingObserver) ObserveInvocation(_ *Site, d Decision) {
	o.mu.Lock()
	o.decisions = append(o.decisions, d)
	o.mu.Unlock()
}

func TestObserversSeeEveryInvocation(t *testing.T) {
	obs := &countingObserver{}
	cfg := NewSiteConfig(Func("work"), nil)
	site := NewSite(cfg, NewDepthCounter(), nil, newFakeClock(), obs)

	site.Begin().EndWith(time.Millisecond)
	site.Begin().EndWith(time.Second)

	require.Len(t, obs.decisions, 2)
	assert.Equal(t, Suppressed, obs.decisions[0].Outcome)
	assert.Equal(t, Reported, obs.decisions[1].Outcome)
}
