package store

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "pdpdispatch/internal/opt"
)

// Run statuses.
const (
    StatusRunning = "running"
    StatusDone    = "done"
    StatusFailed  = "failed"
)

// Run is one solver invocation on one instance, from the API, the CLI or a benchmark sweep.
type Run struct {
    ID          string     `json:"id"`
    Source      string     `json:"source"`
    Instance    string     `json:"instance"`
    NumRequests int        `json:"numRequests"`
    NumVehicles int        `json:"numVehicles"`
    Params      opt.Params `json:"params"`
    Status      string     `json:"status"`
    Cost        float64    `json:"cost"`
    Fulfilled   int        `json:"fulfilled"`
    Complete    bool       `json:"complete"`
    ElapsedSec  float64    `json:"elapsedSec"`
    Routes      [][]int    `json:"routes,omitempty"`
    Error       string     `json:"error,omitempty"`
    System      string     `json:"system,omitempty"`
    CreatedAt   time.Time  `json:"createdAt"`
    FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// RunFilter narrows ListRuns. Cursor is the last id of the previous page.
type RunFilter struct {
    Algorithm string
    Instance  string
    Status    string
    Cursor    string
    Limit     int
}

func (f RunFilter) match(r Run) bool {
    return (f.Algorithm == "" || r.Params.Algorithm == f.Algorithm) &&
        (f.Instance == "" || r.Instance == f.Instance) &&
        (f.Status == "" || r.Status == f.Status)
}

// ErrInvalidCursor is returned by ListRuns for a cursor that is not a run id.
var ErrInvalidCursor = errors.New("invalid cursor")

// checkCursor rejects cursors that cannot be run ids. A well-formed id that
// matches no run still pages from the position it would sort at.
func (f RunFilter) checkCursor() error {
    if f.Cursor == "" { return nil }
    if _, err := uuid.Parse(f.Cursor); err != nil {
        return fmt.Errorf("%w %q: %v", ErrInvalidCursor, f.Cursor, err)
    }
    return nil
}

func (f RunFilter) limit() int {
    if f.Limit <= 0 || f.Limit > 500 { return 100 }
    return f.Limit
}

// Store is the persistence interface used by the API server and the benchmark runner.
type Store interface {
    // Runs. CreateRun assigns ID, CreatedAt and a running status when unset.
    CreateRun(ctx context.Context, run Run) (Run, error)
    FinishRun(ctx context.Context, id string, res opt.Result, runErr error) (Run, error)
    GetRun(ctx context.Context, id string) (Run, error)
    ListRuns(ctx context.Context, f RunFilter) (items []Run, nextCursor string, err error)

    // Named solver parameter profiles
    GetSolverConfig(ctx context.Context, profile string) (opt.Params, error)
    SaveSolverConfig(ctx context.Context, profile string, p opt.Params) error

    Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

// finish applies a solver outcome to r.
func finish(r *Run, res opt.Result, runErr error, now time.Time) {
    r.FinishedAt = &now
    if runErr != nil {
        r.Status = StatusFailed
        r.Error = runErr.Error()
        return
    }
    r.Status = StatusDone
    r.Cost = res.Cost
    r.Fulfilled = res.Fulfilled
    r.Complete = res.Complete
    r.ElapsedSec = res.Elapsed.Seconds()
    if res.Solution != nil {
        r.Routes = make([][]int, len(res.Solution.Routes))
        for i, route := range res.Solution.Routes {
            r.Routes[i] = append([]int{}, route...)
        }
    }
}
