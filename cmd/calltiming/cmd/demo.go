package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/calltiming/pkg/timing"
	"github.com/psantana5/calltiming/pkg/tracing"
)

var (
	demoOrders      int
	demoWorkers     int
	demoSlow        time.Duration
	demoDumpMetrics bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an instrumented sample workload",
	Long: `Runs a small warehouse simulation whose calls are timed: order fulfilment
reports slow orders, picking nests and indents, and price lookups report
cumulative totals once per second.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().IntVarP(&demoOrders, "orders", "n", 40, "orders to fulfil")
	demoCmd.Flags().IntVarP(&demoWorkers, "workers", "w", 4, "concurrent workers")
	demoCmd.Flags().DurationVar(&demoSlow, "slow", 700*time.Millisecond, "delay injected into every tenth order")
	demoCmd.Flags().BoolVar(&demoDumpMetrics, "metrics", false, "print Prometheus metrics when done")
}

type warehouse struct {
	tracer *tracing.Provider
	slow   time.Duration

	fulfilSite *timing.Site
	pickSite   *timing.Site
	priceSite  *timing.Site
}

func newWarehouse(reg *timing.Registry, tracer *tracing.Provider, slow time.Duration) *warehouse {
	defer timing.Track(reg.Register(timing.Constructor("warehouse"), timing.WithThreshold(0)))()

	w := &warehouse{
		tracer: tracer,
		slow:   slow,

		fulfilSite: reg.Func((*warehouse).Fulfil, timing.WithTypePrefix(), timing.WithCategory("orders")),
		pickSite:   reg.Func((*warehouse).pick, timing.WithThreshold(40*time.Millisecond)),
	}
	w.priceSite = reg.Cumulative(timing.IdentityOf((*warehouse).lookupPrice),
		timing.WithReportFrequency(time.Second), timing.WithCategory("pricing"))
	return w
}

// Fulfil picks every line of an order
func (w *warehouse) Fulfil(ctx context.Context, order int) error {
	return w.tracer.Run(ctx, w.fulfilSite, func(ctx context.Context) error {
		if order%10 == 9 {
			time.Sleep(w.slow)
		}
		lines := 1 + order%3
		for i := 0; i < lines; i++ {
			if err := w.pick(ctx, order, 2); err != nil {
				return err
			}
		}
		return nil
	})
}

// pick descends through nested bins, so its lines indent
func (w *warehouse) pick(ctx context.Context, order, levels int) error {
	return timing.Run(w.pickSite, func() error {
		w.lookupPrice(order)
		time.Sleep(time.Duration(5+rand.Intn(20)) * time.Millisecond)
		if levels > 0 {
			return w.pick(ctx, order, levels-1)
		}
		return ctx.Err()
	})
}

func (w *warehouse) lookupPrice(order int) float64 {
	v, _ := timing.Call(w.priceSite, func() (float64, error) {
		time.Sleep(time.Duration(rand.Intn(500)) * time.Microsecond)
		return float64(order) * 1.25, nil
	})
	return v
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if demoDumpMetrics {
		cfg.Metrics.Enabled = true
	}
	rt, err := newStack(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	w := newWarehouse(rt.registry, rt.tracer, demoSlow)
	logger.Info("demo started", map[string]interface{}{"orders": demoOrders, "workers": demoWorkers})

	orders := make(chan int)
	errs := make(chan error, demoWorkers)
	var wg sync.WaitGroup
	for i := 0; i < demoWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for o := range orders {
				if err := w.Fulfil(ctx, o); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

feed:
	for o := 0; o < demoOrders; o++ {
		select {
		case orders <- o:
		case <-ctx.Done():
			break feed
		}
	}
	close(orders)
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return fmt.Errorf("demo failed: %w", err)
	}

	for _, s := range rt.registry.Snapshot() {
		logger.Info("site summary", map[string]interface{}{
			"site":       s.DisplayName,
			"mode":       s.Mode,
			"count":      s.Count,
			"cumulative": timing.FormatFriendly(s.Cumulative),
		})
	}

	if demoDumpMetrics && rt.collector != nil {
		return rt.collector.WriteText(cmd.OutOrStdout())
	}
	return nil
}
