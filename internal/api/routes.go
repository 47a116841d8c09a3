package api

import (
    "net/http"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "pdpdispatch/internal/metrics"
)

// Routes returns the API mux.
func (s *Server) Routes() *http.ServeMux {
    metrics.RegisterDefault()
    mux := http.NewServeMux()

    // Solving
    mux.HandleFunc("/v1/solve", s.SolveHandler)
    mux.HandleFunc("/v1/solver/config", s.SolverConfigHandler)

    // Runs
    mux.HandleFunc("/v1/runs", s.RunsIndexHandler)
    mux.HandleFunc("/v1/runs/", s.RunByIDHandler) // includes /solution, /events

    // Health
    mux.HandleFunc("/healthz", s.HealthHandler)
    mux.HandleFunc("/readyz", s.ReadyHandler)
    mux.HandleFunc("/version", s.VersionHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    // Docs
    mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
    mux.HandleFunc("/openapi.json", s.OpenAPIHandler)
    mux.HandleFunc("/docs", s.DocsHandler)
    return mux
}
