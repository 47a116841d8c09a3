package store

import (
    "context"
    "database/sql"
    _ "embed"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "pdpdispatch/internal/opt"
)

//go:embed schema.sql
var schema string

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate applies the embedded schema. Statements are idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
    for _, stmt := range splitStatements(schema) {
        if _, err := p.db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("migrate: %w", err)
        }
    }
    return nil
}

func splitStatements(sqlText string) []string {
    out := []string{}
    for _, s := range strings.Split(sqlText, ";") {
        if s = strings.TrimSpace(s); s != "" { out = append(out, s) }
    }
    return out
}

const runColumns = `id::text, source, instance, num_requests, num_vehicles, params, status, cost, fulfilled, complete, elapsed_sec, routes, COALESCE(error,''), COALESCE(system,''), created_at, finished_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(row rowScanner) (Run, error) {
    var r Run
    var params, routes []byte
    var finished sql.NullTime
    if err := row.Scan(&r.ID, &r.Source, &r.Instance, &r.NumRequests, &r.NumVehicles, &params, &r.Status, &r.Cost, &r.Fulfilled, &r.Complete,
        &r.ElapsedSec, &routes, &r.Error, &r.System, &r.CreatedAt, &finished); err != nil {
        return Run{}, err
    }
    if err := json.Unmarshal(params, &r.Params); err != nil { return Run{}, fmt.Errorf("decode params: %w", err) }
    if len(routes) > 0 {
        if err := json.Unmarshal(routes, &r.Routes); err != nil { return Run{}, fmt.Errorf("decode routes: %w", err) }
    }
    if finished.Valid { t := finished.Time; r.FinishedAt = &t }
    return r, nil
}

func (p *Postgres) CreateRun(ctx context.Context, run Run) (Run, error) {
    if run.ID == "" {
        id, err := uuid.NewV7()
        if err != nil { return Run{}, err }
        run.ID = id.String()
    }
    if run.CreatedAt.IsZero() { run.CreatedAt = time.Now().UTC() }
    if run.Status == "" { run.Status = StatusRunning }
    params, err := json.Marshal(run.Params)
    if err != nil { return Run{}, err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO runs (id, source, instance, num_requests, num_vehicles, algo, params, status, system, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
        run.ID, run.Source, run.Instance, run.NumRequests, run.NumVehicles, run.Params.Algorithm, params, run.Status, nullIfEmpty(run.System), run.CreatedAt)
    if err != nil { return Run{}, err }
    return run, nil
}

func (p *Postgres) FinishRun(ctx context.Context, id string, res opt.Result, runErr error) (Run, error) {
    r, err := p.GetRun(ctx, id)
    if err != nil { return Run{}, err }
    finish(&r, res, runErr, time.Now().UTC())
    routes, err := routesJSON(r.Routes)
    if err != nil { return Run{}, err }
    _, err = p.db.ExecContext(ctx, `UPDATE runs SET status=$2, cost=$3, fulfilled=$4, complete=$5, elapsed_sec=$6, routes=$7, error=$8, finished_at=$9 WHERE id=$1`,
        id, r.Status, r.Cost, r.Fulfilled, r.Complete, r.ElapsedSec, routes, nullIfEmpty(r.Error), r.FinishedAt)
    if err != nil { return Run{}, err }
    return r, nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
    if _, err := uuid.Parse(id); err != nil { return Run{}, ErrNotFound }
    r, err := scanRun(p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=$1`, id))
    if errors.Is(err, sql.ErrNoRows) { return Run{}, ErrNotFound }
    return r, err
}

func (p *Postgres) ListRuns(ctx context.Context, f RunFilter) ([]Run, string, error) {
    if err := f.checkCursor(); err != nil { return nil, "", err }
    q, args := listRunsQuery(f)
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []Run{}
    for rows.Next() {
        r, err := scanRun(rows)
        if err != nil { return nil, "", err }
        r.Routes = nil
        out = append(out, r)
    }
    if err := rows.Err(); err != nil { return nil, "", err }
    next := ""
    if limit := f.limit(); len(out) > limit {
        out = out[:limit]
        next = out[limit-1].ID
    }
    return out, next, nil
}

// listRunsQuery fetches one row past the page to detect a next page.
func listRunsQuery(f RunFilter) (string, []any) {
    base := `SELECT ` + runColumns + ` FROM runs WHERE true`
    args := []any{}
    add := func(cond string, v any) {
        args = append(args, v)
        base += fmt.Sprintf(" AND %s $%d", cond, len(args))
    }
    if f.Algorithm != "" { add("algo =", f.Algorithm) }
    if f.Instance != "" { add("instance =", f.Instance) }
    if f.Status != "" { add("status =", f.Status) }
    if f.Cursor != "" { add("id >", f.Cursor) }
    args = append(args, f.limit()+1)
    return base + fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args)), args
}

func (p *Postgres) GetSolverConfig(ctx context.Context, profile string) (opt.Params, error) {
    var js []byte
    err := p.db.QueryRowContext(ctx, `SELECT config FROM solver_config WHERE profile=$1`, profile).Scan(&js)
    if errors.Is(err, sql.ErrNoRows) { return opt.Params{}, ErrNotFound }
    if err != nil { return opt.Params{}, err }
    var params opt.Params
    if err := json.Unmarshal(js, &params); err != nil { return opt.Params{}, err }
    return params, nil
}

func (p *Postgres) SaveSolverConfig(ctx context.Context, profile string, params opt.Params) error {
    if err := params.Validate(); err != nil { return err }
    js, err := json.Marshal(params)
    if err != nil { return err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO solver_config (profile, config, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (profile) DO UPDATE SET config=$2, updated_at=now()`, profile, js)
    return err
}

func nullIfEmpty(s string) any { if s == "" { return nil }; return s }

func routesJSON(routes [][]int) (any, error) {
    if routes == nil { return nil, nil }
    b, err := json.Marshal(routes)
    if err != nil { return nil, err }
    return b, nil
}
