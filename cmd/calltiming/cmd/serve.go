package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/psantana5/calltiming/internal/shutdown"
	"github.com/psantana5/calltiming/pkg/instrument"
	"github.com/psantana5/calltiming/pkg/timing"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an instrumented HTTP API with metrics and site snapshots",
	Long: `Starts an HTTP server whose routes are timed as call sites.

Endpoints:
  GET /work/{ms}   sleeps for ms milliseconds
  GET /sites       JSON snapshot of every call site
  GET /metrics     Prometheus metrics (when metrics are enabled)
  GET /health      liveness`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default metrics.address)")
}

func newRouter(rt *stack) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/work").Subrouter()
	api.Use(instrument.HTTPMiddleware(rt.registry, timing.WithCategory("http")))
	api.HandleFunc("/{ms:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		ms, _ := strconv.Atoi(mux.Vars(r)["ms"])
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)

	router.HandleFunc("/sites", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rt.registry.Snapshot())
	}).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler()).Methods(http.MethodGet)
	}
	return router
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newStack(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Metrics.Address
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(rt),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mgr := shutdown.New(10*time.Second, logger)
	mgr.Register(rt.close)
	mgr.Register(shutdown.StopHTTPServer(srv, "api"))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", map[string]interface{}{"addr": addr, "metrics": rt.collector != nil})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		close(serveErr)
	}()

	return mgr.Wait(ctx, serveErr)
}
