package metrics

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/calltiming/pkg/timing"
)

func setup(t *testing.T) (*Collector, *timing.Registry) {
	t.Helper()
	depth := timing.NewDepthCounter()
	c := NewCollector(prometheus.NewRegistry(), depth)
	reg := timing.NewRegistry(
		timing.WithDepthCounter(depth),
		timing.WithObservers(c),
	)
	return c, reg
}

func TestCollectorCountsEveryInvocation(t *testing.T) {
	c, reg := setup(t)
	site := reg.Register(timing.Method("Store", "Get"), timing.WithCategory("store"))

	site.Begin().EndWith(10 * time.Millisecond)
	site.Begin().EndWith(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.invocations.WithLabelValues("Get()", "store", "threshold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reports.WithLabelValues("Get()", "store", "threshold")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollectorCumulativeGauge(t *testing.T) {
	c, reg := setup(t)
	site := reg.Cumulative(timing.Func("lookup"))

	site.Begin().EndWith(250 * time.Millisecond)
	site.Begin().EndWith(250 * time.Millisecond)

	assert.InDelta(t, 0.5, testutil.ToFloat64(c.cumulative.WithLabelValues("lookup()", "")), 1e-9)
}

func TestCollectorDepthGauge(t *testing.T) {
	c, reg := setup(t)
	site := reg.Register(timing.Func("outer"))

	inv := site.Begin()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.depth))
	inv.EndWith(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.depth))
}

func TestCollectorHandlerAndText(t *testing.T) {
	c, reg := setup(t)
	reg.Register(timing.Func("work")).Begin().EndWith(time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `calltiming_invocations_total{category="",mode="threshold",site="work()"} 1`)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	assert.Contains(t, buf.String(), "calltiming_depth 0")
}

func TestCollectorGatherer(t *testing.T) {
	c, reg := setup(t)
	reg.Register(timing.Func("a")).Begin().EndWith(time.Millisecond)
	reg.Register(timing.Func("b")).Begin().EndWith(time.Millisecond)

	n, err := testutil.GatherAndCount(c.Gatherer(), "calltiming_invocations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
