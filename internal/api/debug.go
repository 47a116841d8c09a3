package api

import (
    "net/http"
    "time"

    "pdpdispatch/internal/buildinfo"
    "pdpdispatch/internal/store"
)

// VersionHandler reports build information and the backing services in use.
func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
    storeKind := "postgres"
    if _, ok := s.Store.(*store.Memory); ok { storeKind = "memory" }
    brokerKind := "memory"
    if _, ok := s.Broker.(*RedisBroker); ok { brokerKind = "redis" }
    writeJSON(w, http.StatusOK, map[string]any{
        "build":  buildinfo.Info(),
        "time":   time.Now().UTC().Format(time.RFC3339),
        "store":  storeKind,
        "broker": brokerKind,
        "defaults": map[string]any{
            "algorithm":       s.Defaults.Algorithm,
            "maxSolveSeconds": s.MaxSolveSeconds,
            "rateLimited":     s.Limiter != nil,
        },
    })
}
