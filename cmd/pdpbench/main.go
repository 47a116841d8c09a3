// Command pdpbench runs the configured algorithm over the benchmark instance
// sets and writes results/<algo>/n_<size>_solutions.csv per size.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"pdpdispatch/internal/bench"
	"pdpdispatch/internal/config"
	"pdpdispatch/internal/logging"
	"pdpdispatch/internal/store"
	"pdpdispatch/internal/sysinfo"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	algo := flag.String("algo", "", "algorithm override")
	sizes := flag.String("sizes", "", "comma separated sizes override, e.g. 50,100")
	workers := flag.Int("workers", 0, "instances solved in parallel")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if *algo != "" {
		cfg.Solver.Algorithm = *algo
		if err := cfg.Solver.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid algorithm")
		}
	}
	if *sizes != "" {
		cfg.Bench.Sizes = nil
		for _, s := range strings.Split(*sizes, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n <= 0 {
				log.Fatal().Str("size", s).Msg("invalid size")
			}
			cfg.Bench.Sizes = append(cfg.Bench.Sizes, n)
		}
	}
	if *workers > 0 {
		cfg.Bench.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &bench.Runner{Cfg: cfg.Bench, Params: cfg.Solver, System: sysinfo.Collect(ctx)}
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to database")
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		r.Store = pg
	}
	log.Info().Str("system", r.System.String()).Str("algo", cfg.Solver.Algorithm).Ints("sizes", cfg.Bench.Sizes).Msg("benchmark start")

	reports, err := r.Run(ctx)
	for _, rep := range reports {
		total := 0.0
		for _, row := range rep.Rows {
			total += row.Cost
		}
		evt := log.Info()
		if len(rep.Failures) > 0 {
			evt = log.Warn().Int("failed", len(rep.Failures))
		}
		evt.Int("size", rep.Size).Int("solved", len(rep.Rows)).Float64("totalCost", total).Str("csv", rep.CSVPath).Msg("size done")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("benchmark aborted")
	}
}
