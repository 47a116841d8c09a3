//go:build postgres_integration

package store

import (
    "errors"
    "os"
    "testing"
    "time"

    "pdpdispatch/internal/opt"
)

func TestPostgresRunLifecycle(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    defer p.Close()
    if err := p.Ping(t.Context()); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.Migrate(t.Context()); err != nil { t.Fatalf("Migrate: %v", err) }

    run, err := p.CreateRun(t.Context(), Run{Source: "test", Instance: "it_demo", Params: opt.DefaultParams()})
    if err != nil { t.Fatalf("CreateRun: %v", err) }
    done, err := p.FinishRun(t.Context(), run.ID, opt.Result{Cost: 12, Fulfilled: 2, Complete: true, Elapsed: time.Second}, nil)
    if err != nil { t.Fatalf("FinishRun: %v", err) }
    if done.Status != StatusDone { t.Fatalf("status %s", done.Status) }
    got, err := p.GetRun(t.Context(), run.ID)
    if err != nil { t.Fatalf("GetRun: %v", err) }
    if got.Cost != 12 || got.Params.Algorithm != opt.AlgoPilot { t.Fatalf("unexpected run %+v", got) }
    if _, _, err := p.ListRuns(t.Context(), RunFilter{Instance: "it_demo", Limit: 1}); err != nil { t.Fatalf("ListRuns: %v", err) }
    if _, err := p.GetRun(t.Context(), "not-a-uuid"); !errors.Is(err, ErrNotFound) { t.Fatalf("want ErrNotFound, got %v", err) }
}
