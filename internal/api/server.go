package api

import (
    "context"
    "strings"
    "sync"

    "github.com/rs/zerolog/log"
    "golang.org/x/time/rate"

    "pdpdispatch/internal/config"
    "pdpdispatch/internal/opt"
    "pdpdispatch/internal/store"
)

type Server struct {
    Store    store.Store
    Broker   EventBroker
    // Limiter throttles POST /v1/solve; nil disables throttling.
    Limiter  *rate.Limiter
    Defaults opt.Params
    // MaxSolveSeconds caps the wall-clock time of every solve; 0 means no cap.
    MaxSolveSeconds float64

    runs sync.WaitGroup
}

// NewServer creates a Server. If DatabaseURL is unset, uses in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if err := sp.Migrate(context.Background()); err != nil {
            return nil, err
        }
        s = sp
    }
    // Broker selection
    var broker EventBroker
    if cfg.RedisURL != "" {
        rb, err := NewRedisBroker(cfg.RedisURL)
        if err != nil {
            log.Warn().Err(err).Msg("redis broker unavailable, using in-process broker")
            broker = NewBroker()
        } else {
            broker = rb
        }
    } else {
        broker = NewBroker()
    }
    srv := &Server{Store: s, Broker: broker, Defaults: cfg.Solver, MaxSolveSeconds: cfg.Server.MaxSolveSeconds}
    if cfg.Server.SolveRate > 0 {
        srv.Limiter = rate.NewLimiter(rate.Limit(cfg.Server.SolveRate), max(cfg.Server.SolveBurst, 1))
    }
    return srv, nil
}

// Wait blocks until background runs started by async solves have finished.
func (s *Server) Wait() { s.runs.Wait() }
