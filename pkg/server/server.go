// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package server exposes the metrics system over HTTP for external
// inspection and control: per-source snapshot views (served from the
// TTL-bounded adapter caches, so rapid polling stays cheap) and the
// system control operations.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pulse-metrics/pulse/pkg/logger"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
)

type Server struct {
	sys *metricsystem.MetricsSystem
	srv *http.Server
}

func New(sys *metricsystem.MetricsSystem, address string) *Server {
	s := &Server{sys: sys}
	r := mux.NewRouter()
	r.HandleFunc("/metrics/sources", s.listSources).Methods(http.MethodGet)
	r.HandleFunc("/metrics/sources/{name}", s.showSource).Methods(http.MethodGet)
	r.HandleFunc("/control/start", s.start).Methods(http.MethodPost)
	r.HandleFunc("/control/stop", s.stop).Methods(http.MethodPost)
	r.HandleFunc("/control/publish", s.publish).Methods(http.MethodPost)
	r.HandleFunc("/control/period", s.period).Methods(http.MethodGet)
	s.srv = &http.Server{Addr: address, Handler: r}
	return s
}

// Handler returns the route tree, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logger.GetLogger().WithField("addr", s.srv.Addr).Info("Starting metrics introspection server")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.sys.SourceNames())
}

func (s *Server) showSource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	recs, err := s.sys.SnapshotSource(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, recs)
}

func (s *Server) start(w http.ResponseWriter, _ *http.Request) {
	if err := s.sys.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stop(w http.ResponseWriter, _ *http.Request) {
	s.sys.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publish(w http.ResponseWriter, _ *http.Request) {
	s.sys.PublishMetricsNow()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) period(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"period":     s.sys.Period().String(),
		"monitoring": s.sys.Monitoring(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.GetLogger().WithError(err).Warn("Error encoding response")
	}
}

// WaitShutdown shuts the server down, bounded by the given grace
// period.
func (s *Server) WaitShutdown(grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		logger.GetLogger().WithError(err).Warn("Introspection server shutdown")
	}
}
