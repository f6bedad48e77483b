package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/calltiming/pkg/timing"
)

var _ timing.Observer = (*Collector)(nil)

// Collector exports every completed invocation as Prometheus metrics
type Collector struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	reports     *prometheus.CounterVec
	cumulative  *prometheus.GaugeVec
	depth       prometheus.GaugeFunc

	gatherer prometheus.Gatherer
}

// NewCollector creates the collector and registers it with reg. A nil
// reg uses a fresh private registry.
func NewCollector(reg *prometheus.Registry, depth *timing.DepthCounter) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if depth == nil {
		depth = timing.SharedDepth()
	}

	c := &Collector{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calltiming_invocations_total",
				Help: "Completed invocations per instrumented call site",
			},
			[]string{"site", "category", "mode"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calltiming_invocation_duration_seconds",
				Help:    "Elapsed time of instrumented invocations",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"site", "category"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calltiming_reports_total",
				Help: "Trace lines emitted per call site",
			},
			[]string{"site", "category", "mode"},
		),
		cumulative: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "calltiming_cumulative_seconds",
				Help: "Lifetime total elapsed time of cumulative call sites",
			},
			[]string{"site", "category"},
		),
		depth: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "calltiming_depth",
				Help: "Current nesting depth of tracked invocations",
			},
			func() float64 { return float64(depth.Depth()) },
		),
		gatherer: reg,
	}

	reg.MustRegister(c.invocations, c.duration, c.reports, c.cumulative, c.depth)
	return c
}

// ObserveInvocation implements timing.Observer
func (c *Collector) ObserveInvocation(site *timing.Site, d timing.Decision) {
	cfg := site.Config()
	name, mode := cfg.DisplayName, cfg.Mode.String()

	c.invocations.WithLabelValues(name, cfg.Category, mode).Inc()
	c.duration.WithLabelValues(name, cfg.Category).Observe(d.Elapsed.Seconds())
	if d.Mode == timing.ModeCumulative {
		c.cumulative.WithLabelValues(name, cfg.Category).Set(d.Cumulative.Seconds())
	}
	if d.Reported() {
		c.reports.WithLabelValues(name, cfg.Category, mode).Inc()
	}
}

// Gatherer returns the registry the collector was registered with
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
