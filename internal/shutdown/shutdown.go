package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/calltiming/pkg/logging"
)

// Manager runs registered cleanup functions when the process is asked to
// stop.
type Manager struct {
	funcs   []func(context.Context) error
	mu      sync.Mutex
	timeout time.Duration
	log     *logging.Logger
}

// New creates a manager whose cleanup shares one timeout
func New(timeout time.Duration, log *logging.Logger) *Manager {
	return &Manager{timeout: timeout, log: log}
}

// Register adds a cleanup function. They run in reverse order.
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, fn)
}

// Wait blocks until SIGINT, SIGTERM, ctx is done or failed delivers, then
// shuts down. An error received from failed is returned together with any
// cleanup errors. A nil failed channel is never selected.
func (m *Manager) Wait(ctx context.Context, failed <-chan error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cause error
	select {
	case <-ctx.Done():
		m.log.Info("shutting down")
	case cause = <-failed:
		if cause != nil {
			m.log.Error("shutting down after failure", map[string]interface{}{"error": cause.Error()})
		}
	}
	return errors.Join(cause, m.Shutdown())
}

// Shutdown runs every cleanup function and joins their errors
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var errs []error
	for i := len(m.funcs) - 1; i >= 0; i-- {
		if err := m.funcs[i](ctx); err != nil {
			m.log.Error("shutdown step failed", map[string]interface{}{"error": err.Error()})
			errs = append(errs, err)
		}
	}
	m.funcs = nil
	return errors.Join(errs...)
}

// StopHTTPServer creates a shutdown function for an HTTP server
func StopHTTPServer(server interface{ Shutdown(context.Context) error }, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop %s server: %w", name, err)
		}
		return nil
	}
}
