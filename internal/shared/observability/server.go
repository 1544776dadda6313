package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is served on /health.
type HealthStatus struct {
	Status  string    `json:"status"`
	LastRun time.Time `json:"last_run"`
	Clean   bool      `json:"clean"`
}

// Server exposes /metrics and /health while watch mode runs.
type Server struct {
	addr   string
	server *http.Server
	health atomic.Pointer[HealthStatus]
}

func NewServer(addr string) *Server {
	s := &Server{addr: addr}
	s.health.Store(&HealthStatus{Status: "starting"})
	return s
}

// RecordRun updates the status reported on /health.
func (s *Server) RecordRun(at time.Time, clean bool) {
	s.health.Store(&HealthStatus{Status: "up", LastRun: at, Clean: clean})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Load()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
