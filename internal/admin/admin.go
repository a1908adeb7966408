// Package admin exposes process-operability endpoints — metrics and
// liveness — on a listener independent of the trading protocol (SPEC
// §6, "a second, independent HTTP listener"). Neither endpoint carries
// market data.
package admin

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports whether the process is live. /healthz answers 200
// when it returns true and 503 otherwise.
type HealthFunc func() bool

// Server is the admin HTTP listener.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds the admin server bound to addr, serving /metrics from reg
// and /healthz from healthy.
func New(addr string, reg prometheus.Gatherer, healthy HealthFunc, logger *zap.Logger) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: router},
		logger:     logger,
	}
}

// Start listens and serves in a background goroutine. ListenAndServe
// errors other than the expected shutdown error are logged.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("admin listener failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
