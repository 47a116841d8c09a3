package api

import (
    "context"
    "errors"
    "fmt"
    "io"
    "mime"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog/log"

    "pdpdispatch/internal/metrics"
    "pdpdispatch/internal/opt"
    "pdpdispatch/internal/store"
)

const (
    maxSolveBody = 32 << 20
    // progressEvery publishes every n-th non-improving step.
    progressEvery = 25
)

// SolveHandler handles POST /v1/solve. The body is a SolveRequest, or the raw
// instance text with Content-Type text/plain and solver knobs as query parameters.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if s.Limiter != nil && !s.Limiter.Allow() {
        metrics.SolveRejected.Inc()
        w.Header().Set("Retry-After", "1")
        writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "solve rate limit exceeded", r.URL.Path)
        return
    }
    r.Body = http.MaxBytesReader(w, r.Body, maxSolveBody)
    req, err := decodeSolveRequest(r)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    inst, err := req.build()
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid instance", err.Error(), r.URL.Path)
        return
    }
    params, err := s.resolveParams(r.Context(), req)
    if errors.Is(err, store.ErrNotFound) {
        writeProblem(w, http.StatusNotFound, "Unknown profile", req.Profile, r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solver parameters", err.Error(), r.URL.Path)
        return
    }
    run, err := s.Store.CreateRun(r.Context(), store.Run{
        Source: "api", Instance: inst.Name, NumRequests: inst.NumRequests, NumVehicles: inst.NumVehicles, Params: params,
    })
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Create run failed", err.Error(), r.URL.Path)
        return
    }
    if req.Async {
        s.runs.Add(1)
        go func() {
            defer s.runs.Done()
            _, _ = s.execute(context.Background(), run.ID, inst, params)
        }()
        w.Header().Set("Location", "/v1/runs/"+run.ID)
        writeJSON(w, http.StatusAccepted, run)
        return
    }
    done, err := s.execute(context.WithoutCancel(r.Context()), run.ID, inst, params)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
        return
    }
    if done.Status == store.StatusFailed {
        writeProblem(w, http.StatusInternalServerError, "Solve failed", done.Error, "/v1/runs/"+run.ID)
        return
    }
    writeJSON(w, http.StatusOK, done)
}

func decodeSolveRequest(r *http.Request) (*SolveRequest, error) {
    ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
    req := &SolveRequest{}
    if ct == "text/plain" {
        b, err := io.ReadAll(r.Body)
        if err != nil { return nil, err }
        q := r.URL.Query()
        req.InstanceText = string(b)
        req.Name = q.Get("name")
        req.Profile = q.Get("profile")
        req.Async = q.Get("async") == "true" || q.Get("async") == "1"
        if req.Params, err = paramsFromQuery(q); err != nil { return nil, err }
    } else if err := decodeJSON(r.Body, req); err != nil {
        return nil, err
    }
    if err := validateSolveRequest(req); err != nil { return nil, err }
    return req, nil
}

func (s *Server) resolveParams(ctx context.Context, req *SolveRequest) (opt.Params, error) {
    p := s.Defaults
    if req.Profile != "" {
        stored, err := s.Store.GetSolverConfig(ctx, req.Profile)
        if err != nil { return opt.Params{}, err }
        p = mergeParams(p, stored)
    }
    if req.Params != nil { p = mergeParams(p, *req.Params) }
    if err := p.Validate(); err != nil { return opt.Params{}, err }
    if s.MaxSolveSeconds > 0 {
        if p.MaxSeconds > s.MaxSolveSeconds {
            return opt.Params{}, fmt.Errorf("maxSeconds must be <= %g", s.MaxSolveSeconds)
        }
        // iteration-bounded runs get the server deadline too
        if p.TimeLimit == 0 || p.TimeLimit > s.MaxSolveSeconds { p.TimeLimit = s.MaxSolveSeconds }
    }
    return p, nil
}

// execute runs the solver, records the outcome and announces it on the broker.
// Solver failures are recorded on the run; only store failures are returned.
func (s *Server) execute(ctx context.Context, runID string, inst *opt.Instance, p opt.Params) (store.Run, error) {
    res, runErr := opt.Run(inst, p, s.progress(runID))
    metrics.ObserveSolve(p.Algorithm, res.Elapsed, res.Cost, res.Complete, runErr)
    run, err := s.Store.FinishRun(ctx, runID, res, runErr)
    if err != nil {
        log.Error().Err(err).Str("run", runID).Msg("finish run")
        return store.Run{}, err
    }
    s.Broker.Publish(runID, finishedEvent(run))
    evt := log.Info()
    if runErr != nil { evt = log.Error().Err(runErr) }
    evt.Str("run", runID).Str("instance", inst.Name).Str("algo", p.Algorithm).
        Float64("cost", run.Cost).Int("fulfilled", run.Fulfilled).Dur("elapsed", res.Elapsed).Msg("solve finished")
    return run, nil
}

func (s *Server) progress(runID string) opt.Observer {
    return func(ev opt.Event) {
        if !ev.Improved && ev.Step%progressEvery != 0 { return }
        s.Broker.Publish(runID, RunEvent{Type: EventProgress, RunID: runID, Data: map[string]any{
            "algo": ev.Algo, "step": ev.Step, "cost": ev.Cost, "fulfilled": ev.Fulfilled, "improved": ev.Improved,
        }})
    }
}

// RunsIndexHandler handles GET /v1/runs
func (s *Server) RunsIndexHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    q := r.URL.Query()
    f := store.RunFilter{Algorithm: q.Get("algorithm"), Instance: q.Get("instance"), Status: q.Get("status"), Cursor: q.Get("cursor")}
    if v := q.Get("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid limit", err.Error(), r.URL.Path)
            return
        }
        f.Limit = n
    }
    items, next, err := s.Store.ListRuns(r.Context(), f)
    if errors.Is(err, store.ErrInvalidCursor) {
        writeProblem(w, http.StatusBadRequest, "Invalid cursor", err.Error(), r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// RunByIDHandler handles /v1/runs/{id}, /v1/runs/{id}/solution and /v1/runs/{id}/events
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
    id, sub, _ := strings.Cut(rest, "/")
    if id == "" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if sub == "events" {
        s.RunEventsHandler(w, r, id)
        return
    }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    run, err := s.Store.GetRun(r.Context(), id)
    if errors.Is(err, store.ErrNotFound) { writeProblem(w, http.StatusNotFound, "Run not found", id, r.URL.Path); return }
    if err != nil { writeProblem(w, http.StatusInternalServerError, "Get run failed", err.Error(), r.URL.Path); return }
    switch sub {
    case "":
        writeJSON(w, http.StatusOK, run)
    case "solution":
        if run.Status != store.StatusDone {
            writeProblem(w, http.StatusConflict, "Run not finished", "status is "+run.Status, r.URL.Path)
            return
        }
        writeSolutionText(w, run)
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
    }
}

// SolverConfigHandler handles GET/PUT /v1/solver/config?profile=name
func (s *Server) SolverConfigHandler(w http.ResponseWriter, r *http.Request) {
    profile := r.URL.Query().Get("profile")
    switch r.Method {
    case http.MethodGet:
        if profile == "" {
            writeJSON(w, http.StatusOK, map[string]any{"profile": "", "params": s.Defaults})
            return
        }
        p, err := s.Store.GetSolverConfig(r.Context(), profile)
        if errors.Is(err, store.ErrNotFound) { writeProblem(w, http.StatusNotFound, "Unknown profile", profile, r.URL.Path); return }
        if err != nil { writeProblem(w, http.StatusInternalServerError, "Get config failed", err.Error(), r.URL.Path); return }
        writeJSON(w, http.StatusOK, map[string]any{"profile": profile, "params": p})
    case http.MethodPut:
        if profile == "" { writeProblem(w, http.StatusBadRequest, "Invalid config", "profile query parameter required", r.URL.Path); return }
        var in opt.Params
        if err := decodeJSON(r.Body, &in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        p := mergeParams(s.Defaults, in)
        if err := s.Store.SaveSolverConfig(r.Context(), profile, p); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid config", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"profile": profile, "params": p})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
    defer cancel()
    if err := s.Store.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    type pinger interface{ Ping(ctx context.Context) error }
    if pb, ok := s.Broker.(pinger); ok {
        if err := pb.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}
