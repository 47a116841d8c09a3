// Command pdpsolve solves one instance file and writes the solution file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"pdpdispatch/internal/config"
	"pdpdispatch/internal/instancefile"
	"pdpdispatch/internal/logging"
	"pdpdispatch/internal/opt"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	input := flag.String("i", "", "instance file")
	output := flag.String("o", "", "solution file (default <dir>/<name>_sol.txt next to the instance)")
	algo := flag.String("algo", "", "algorithm: "+strings.Join(opt.Algorithms, "|"))
	seed := flag.Int64("seed", 0, "random seed (0 = from config or clock)")
	seconds := flag.Float64("t", 0, "time limit in seconds (overrides iteration limit)")
	iterations := flag.Int("iter", 0, "iteration limit")
	verbose := flag.Bool("v", false, "log solver progress")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, true)

	p := cfg.Solver
	if *algo != "" {
		p.Algorithm = *algo
	}
	if *seed != 0 {
		p.Seed = *seed
	}
	if *seconds > 0 {
		p.MaxSeconds = *seconds
	}
	if *iterations > 0 {
		p.MaxIterations = *iterations
	}

	inst, err := instancefile.Load(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load instance")
	}
	log.Info().Str("instance", inst.String()).Str("algo", p.Algorithm).Msg("solving")

	var obs opt.Observer
	if *verbose {
		obs = func(ev opt.Event) {
			if ev.Improved {
				log.Info().Str("algo", ev.Algo).Int("step", ev.Step).Float64("cost", ev.Cost).Int("fulfilled", ev.Fulfilled).Msg("improved")
			}
		}
	}
	res, err := opt.Run(inst, p, obs)
	if err != nil {
		log.Fatal().Err(err).Msg("solve failed")
	}

	out := *output
	if out == "" {
		out = filepath.Join(filepath.Dir(*input), inst.Name+"_sol.txt")
	}
	if err := instancefile.SaveSolution(out, inst, res.Solution); err != nil {
		log.Fatal().Err(err).Msg("cannot write solution")
	}
	evt := log.Info()
	if !res.Complete {
		evt = log.Warn().Int("required", inst.MinFulfilled)
	}
	evt.Float64("cost", res.Cost).Int("fulfilled", res.Fulfilled).Int("length", res.Solution.TotalLength()).
		Float64("fairness", inst.Fairness(res.Solution.SumsPerRoute)).Dur("elapsed", res.Elapsed).Str("out", out).Msg("done")
}
