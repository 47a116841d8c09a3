package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // SolveRuns counts solver runs by algorithm and outcome (complete, partial, error)
    SolveRuns = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "pdp_solve_runs_total", Help: "Solver runs by algorithm and outcome."},
        []string{"algo", "outcome"},
    )
    // SolveDuration tracks solver wall time in seconds
    SolveDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "pdp_solve_duration_seconds", Help: "Solver wall time in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}},
        []string{"algo"},
    )
    // SolveCost records the objective of finished runs
    SolveCost = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "pdp_solve_cost", Help: "Objective value of finished runs.", Buckets: prometheus.ExponentialBuckets(100, 2, 14)},
        []string{"algo"},
    )
    // SolveRejected counts solve requests turned away by the rate limiter
    SolveRejected = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "pdp_solve_rejected_total", Help: "Solve requests rejected by the rate limiter."},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(SolveRuns)
        Registry.MustRegister(SolveDuration)
        Registry.MustRegister(SolveCost)
        Registry.MustRegister(SolveRejected)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once

// ObserveSolve records one finished run. A nil err with complete=false counts as partial.
func ObserveSolve(algo string, elapsed time.Duration, cost float64, complete bool, err error) {
    outcome := "complete"
    switch {
    case err != nil:
        outcome = "error"
    case !complete:
        outcome = "partial"
    }
    SolveRuns.WithLabelValues(algo, outcome).Inc()
    if err != nil { return }
    SolveDuration.WithLabelValues(algo).Observe(elapsed.Seconds())
    SolveCost.WithLabelValues(algo).Observe(cost)
}
