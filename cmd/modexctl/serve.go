package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slon/upgrademutex/metrics"
	"github.com/slon/upgrademutex/registry"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics and a debug registry snapshot over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			reg := prometheus.NewRegistry()
			rec := metrics.NewPrometheusRecorder(reg, "modexctl", "upgrademutex")
			mutexes := registry.New(registry.WithLogger(logger), registry.WithRecorder(rec))

			go runDemoLoad(mutexes, logger)

			router := newDebugRouter(reg, mutexes, logger)

			logger.Info("serving", zap.String("addr", addr))
			return http.ListenAndServe(addr, router)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

// runDemoLoad keeps a single "demo" registry key under continuous synthetic
// load, cycling shared, upgrade and exclusive acquisitions, so /metrics and
// /debug/registry reflect live activity instead of an idle mutex.
func runDemoLoad(mutexes *registry.Registry, logger *zap.Logger) {
	for i := 0; ; i++ {
		var err error
		switch i % 3 {
		case 0:
			var h registry.SharedHandle
			if h, err = mutexes.AcquireShared("demo"); err == nil {
				h.Unlock()
			}
		case 1:
			var h registry.UpgradeHandle
			if h, err = mutexes.AcquireUpgrade("demo"); err == nil {
				h.Unlock()
			}
		case 2:
			var h registry.ExclusiveHandle
			if h, err = mutexes.AcquireExclusive("demo"); err == nil {
				h.Unlock()
			}
		}
		if err != nil {
			logger.Warn("demo load: acquire failed", zap.Error(err))
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newDebugRouter(reg *prometheus.Registry, mutexes *registry.Registry, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/debug/registry", func(w http.ResponseWriter, req *http.Request) {
		snap := mutexes.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			logger.Error("encode registry snapshot", zap.Error(err))
		}
	})

	return handlers.CombinedLoggingHandler(os.Stdout, withSnooping(r, logger))
}

// withSnooping logs status code, bytes written and duration for every
// request, captured without wrapping http.ResponseWriter by hand.
func withSnooping(inner http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		m := httpsnoop.CaptureMetrics(inner, w, req)
		logger.Debug("request handled",
			zap.String("path", req.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("duration", m.Duration),
		)
	})
}
