package main

import (
    "bufio"
    "context"
    "errors"
    "flag"
    "fmt"
    "net"
    "net/http"
    "os"
    "os/signal"
    "strconv"
    "strings"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "pdpdispatch/internal/api"
    "pdpdispatch/internal/buildinfo"
    "pdpdispatch/internal/config"
    "pdpdispatch/internal/logging"
    "pdpdispatch/internal/metrics"
)

func main() {
    cfgPath := flag.String("config", os.Getenv("PDP_CONFIG"), "YAML config file")
    flag.Parse()

    cfg, err := config.Load(*cfgPath)
    if err != nil {
        log.Fatal().Err(err).Msg("cannot load config")
    }
    logging.Setup(cfg.LogLevel, cfg.LogPretty)

    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init server")
    }

    addr := ":" + strings.TrimPrefix(cfg.Server.Port, ":")
    srv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(srvDeps.Routes()),
        ReadHeaderTimeout: 5 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = srv.Shutdown(shutdownCtx)
    }()

    log.Info().Str("addr", addr).Str("version", buildinfo.String()).Str("algo", cfg.Solver.Algorithm).Msg("API listening")
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
        log.Fatal().Err(err).Msg("server error")
    }
    // let async runs record their outcome
    srvDeps.Wait()
    log.Info().Msg("API stopped")
}

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (s *statusRecorder) WriteHeader(code int) {
    s.status = code
    s.ResponseWriter.WriteHeader(code)
}

// Hijack passes websocket upgrades through to the underlying connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    h, ok := s.ResponseWriter.(http.Hijacker)
    if !ok { return nil, nil, fmt.Errorf("response writer does not support hijacking") }
    s.status = http.StatusSwitchingProtocols
    return h.Hijack()
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(rec, r)
        dur := time.Since(start)
        path := routeLabel(r.URL.Path)
        code := strconv.Itoa(rec.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, path, code).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, code).Observe(dur.Seconds())

        var evt *zerolog.Event
        switch {
        case rec.status >= 500:
            evt = log.Error()
        case rec.status >= 400:
            evt = log.Warn()
        default:
            evt = log.Debug()
        }
        evt.Str("remote", r.RemoteAddr).Str("method", r.Method).Str("path", r.URL.Path).
            Int("status", rec.status).Dur("latency", dur).Msg("HTTP request")
    })
}

// routeLabel collapses run ids so metric labels stay bounded.
func routeLabel(path string) string {
    rest, ok := strings.CutPrefix(path, "/v1/runs/")
    if !ok { return path }
    if _, sub, found := strings.Cut(rest, "/"); found { return "/v1/runs/:id/" + sub }
    return "/v1/runs/:id"
}
