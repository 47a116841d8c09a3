package store

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"

    "pdpdispatch/internal/opt"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu    sync.Mutex
    runs  map[string]Run      // id -> run
    order []string            // ids in creation order
    cfg   map[string]opt.Params // profile -> params
}

func NewMemory() *Memory {
    return &Memory{
        runs: map[string]Run{},
        cfg:  map[string]opt.Params{},
    }
}

func (m *Memory) CreateRun(ctx context.Context, run Run) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if run.ID == "" {
        id, err := uuid.NewV7()
        if err != nil { return Run{}, err }
        run.ID = id.String()
    }
    if _, dup := m.runs[run.ID]; dup {
        return Run{}, fmt.Errorf("run %s already exists", run.ID)
    }
    if run.CreatedAt.IsZero() { run.CreatedAt = time.Now().UTC() }
    if run.Status == "" { run.Status = StatusRunning }
    m.runs[run.ID] = run
    m.order = append(m.order, run.ID)
    return run, nil
}

func (m *Memory) FinishRun(ctx context.Context, id string, res opt.Result, runErr error) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.runs[id]
    if !ok { return Run{}, ErrNotFound }
    finish(&r, res, runErr, time.Now().UTC())
    m.runs[id] = r
    return r, nil
}

func (m *Memory) GetRun(ctx context.Context, id string) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.runs[id]
    if !ok { return Run{}, ErrNotFound }
    return r, nil
}

func (m *Memory) ListRuns(ctx context.Context, f RunFilter) ([]Run, string, error) {
    if err := f.checkCursor(); err != nil { return nil, "", err }
    m.mu.Lock(); defer m.mu.Unlock()
    start := 0
    if f.Cursor != "" {
        // ids are UUIDv7, so creation order is id order
        start = len(m.order)
        for i, id := range m.order {
            if id == f.Cursor { start = i + 1; break }
            if id > f.Cursor { start = i; break }
        }
    }
    limit := f.limit()
    out := []Run{}
    next := ""
    for _, id := range m.order[start:] {
        r := m.runs[id]
        if !f.match(r) { continue }
        if len(out) == limit { next = out[len(out)-1].ID; break }
        r.Routes = nil
        out = append(out, r)
    }
    return out, next, nil
}

func (m *Memory) GetSolverConfig(ctx context.Context, profile string) (opt.Params, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if p, ok := m.cfg[profile]; ok { return p, nil }
    return opt.Params{}, ErrNotFound
}

func (m *Memory) SaveSolverConfig(ctx context.Context, profile string, p opt.Params) error {
    if err := p.Validate(); err != nil { return err }
    m.mu.Lock(); defer m.mu.Unlock()
    m.cfg[profile] = p
    return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
