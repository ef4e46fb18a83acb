/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// JobRunner triggers a scheduled job out of band.
type JobRunner interface {
	RunNow(ctx context.Context, name string) (models.BatchResult, error)
}

// Server exposes health, metrics and manual job triggers for the scheduler
// process.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, gatherer prometheus.Gatherer, health HealthCheck, jobs JobRunner) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(gatherer, health, jobs),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// NewRouter builds the ops routes. jobs may be nil.
func NewRouter(gatherer prometheus.Gatherer, health HealthCheck, jobs JobRunner) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				zap.L().Warn("Health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if jobs != nil {
		r.Post("/jobs/{name}/run", func(w http.ResponseWriter, req *http.Request) {
			name := chi.URLParam(req, "name")
			result, err := jobs.RunNow(req.Context(), name)
			switch {
			case errors.Is(err, scheduler.ErrUnknownJob):
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			case err != nil:
				writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
				return
			}
			status := http.StatusOK
			if result.HasFailures() {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, summarize(result))
		})
	}
	return r
}

type runSummary struct {
	Operation string              `json:"operation"`
	DryRun    bool                `json:"dry_run"`
	Succeeded int                 `json:"succeeded"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Items     []models.ItemResult `json:"items"`
}

func summarize(result models.BatchResult) runSummary {
	return runSummary{
		Operation: result.Operation,
		DryRun:    result.DryRun,
		Succeeded: result.Succeeded(),
		Skipped:   result.Skipped(),
		Failed:    result.Failed(),
		Items:     result.Items,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Debug("Failed to write response", zap.Error(err))
	}
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("Ops server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
