// Package httpapi serves the watcher's HTTP endpoints: Prometheus metrics,
// the WebSocket relay, the latest-value status document and a health check.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/helix-lab/helix/brcwatch/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Addr     string
	Gatherer prometheus.Gatherer
	// Relay is mounted on /ws when set.
	Relay http.Handler
	// Status backs /status when set.
	Status *state.Tracker
	Log    *slog.Logger
}

type Server struct {
	log    *slog.Logger
	addr   string
	router *mux.Router
	srv    *http.Server
	ln     net.Listener
	done   chan struct{}
}

func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	if cfg.Relay != nil {
		r.Handle("/ws", cfg.Relay).Methods(http.MethodGet)
	}
	if cfg.Status != nil {
		r.HandleFunc("/status", status(cfg.Status, cfg.Log)).Methods(http.MethodGet)
	}

	s := &Server{
		log:    cfg.Log,
		addr:   cfg.Addr,
		router: r,
	}
	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.done = make(chan struct{})

	s.log.Info("Serving status endpoints", "addr", ln.Addr().String())
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Status server stopped", "err", err)
		}
	}()
	return nil
}

// Addr is the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires. Hijacked WebSocket connections are not tracked.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	if err != nil {
		err = errors.Join(err, s.srv.Close())
	}
	<-s.done
	return err
}

func status(t *state.Tracker, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(t.Snapshot()); err != nil {
			log.Debug("Write /status", "err", err)
		}
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
