package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/calltiming/internal/config"
	"github.com/psantana5/calltiming/pkg/logging"
	"github.com/psantana5/calltiming/pkg/metrics"
	"github.com/psantana5/calltiming/pkg/sink"
	"github.com/psantana5/calltiming/pkg/timing"
	"github.com/psantana5/calltiming/pkg/tracing"
)

// stack is everything an instrumented command needs
type stack struct {
	registry  *timing.Registry
	collector *metrics.Collector
	tracer    *tracing.Provider
	throttle  *sink.Throttle
	traceLog  *logging.Logger

	stopRotation func()
}

func newReporter(c *config.Config, stdout, stderr io.Writer) (timing.Reporter, *logging.Logger, error) {
	switch c.Output {
	case "stdout":
		return sink.NewWriter(stdout, c.DefaultCategory), nil, nil
	case "stderr":
		return sink.NewWriter(stderr, c.DefaultCategory), nil, nil
	case "log":
		traceLog, err := logging.NewFileLogger("trace", logging.INFO, c.LogFormat == "json")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open trace log: %w", err)
		}
		return sink.NewLogger(traceLog, logging.INFO, c.DefaultCategory), traceLog, nil
	default:
		return timing.Discard, nil, nil
	}
}

func newStack(ctx context.Context, c *config.Config, stdout, stderr io.Writer) (*stack, error) {
	reporter, traceLog, err := newReporter(c, stdout, stderr)
	if err != nil {
		return nil, err
	}

	rt := &stack{traceLog: traceLog}
	if traceLog != nil && c.TraceLog.MaxBytes > 0 {
		rt.stopRotation = traceLog.StartRotation(c.TraceLog.CheckInterval, c.TraceLog.MaxBytes)
	}
	if c.Throttle.PerSecond > 0 {
		rt.throttle = sink.NewThrottle(reporter, c.Throttle.PerSecond, c.Throttle.Burst)
		reporter = rt.throttle
	}

	depth := timing.NewDepthCounter()
	opts := []timing.RegistryOption{
		timing.WithDepthCounter(depth),
		timing.WithReporter(reporter),
		timing.WithOverrides(c.Overrides()),
	}
	if c.Metrics.Enabled {
		rt.collector = metrics.NewCollector(prometheus.NewRegistry(), depth)
		opts = append(opts, timing.WithObservers(rt.collector))
	}
	rt.registry = timing.NewRegistry(opts...)

	rt.tracer, err = tracing.InitTracer(ctx, c.Tracing)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *stack) close(ctx context.Context) error {
	if rt.throttle != nil && rt.throttle.Dropped() > 0 {
		logger.Warn("trace lines dropped by throttle", map[string]interface{}{"dropped": rt.throttle.Dropped()})
	}
	if rt.stopRotation != nil {
		rt.stopRotation()
	}
	if rt.traceLog != nil {
		rt.traceLog.Close()
	}
	return rt.tracer.Shutdown(ctx)
}
