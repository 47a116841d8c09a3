// Command pdpgen writes random instances in the benchmark directory layout.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pdpdispatch/internal/bench"
	"pdpdispatch/internal/instancefile"
	"pdpdispatch/internal/logging"
)

func main() {
	out := flag.String("outputDir", "instances", "root directory; files go to <root>/<size>/<split>/")
	split := flag.String("split", "test", "split directory name")
	sizes := flag.String("n", "50", "comma separated request counts")
	count := flag.Int("count", 1, "instances per size")
	seed := flag.Int64("seed", 0, "random seed (0 = clock)")
	rho := flag.Float64("rho", 100, "fairness weight")
	fulfill := flag.Float64("fulfill", 0.9, "fraction of requests that must be served")
	grid := flag.Int("grid", 1000, "coordinate range")
	flag.Parse()
	logging.Setup("info", true)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	for _, s := range strings.Split(*sizes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			log.Fatal().Str("size", s).Msg("invalid size")
		}
		dir := filepath.Join(*out, strconv.Itoa(n), *split)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("mkdir")
		}
		for i := 1; i <= *count; i++ {
			gs := bench.DefaultGenSpec(n)
			gs.FairnessWeight, gs.Fulfill, gs.GridSize = *rho, *fulfill, *grid
			raw := bench.Generate(rng, fmt.Sprintf("instance%d_%d", i, n), gs)
			path := filepath.Join(dir, raw.Name+".txt")
			f, err := os.Create(path)
			if err != nil {
				log.Fatal().Err(err).Msg("create")
			}
			if err := instancefile.WriteInstance(f, raw); err != nil {
				log.Fatal().Err(err).Str("file", path).Msg("write")
			}
			if err := f.Close(); err != nil {
				log.Fatal().Err(err).Msg("close")
			}
		}
		log.Info().Int("size", n).Int("count", *count).Str("dir", dir).Int64("seed", *seed).Msg("generated")
	}
}
