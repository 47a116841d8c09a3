package opt

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// GRASP repeats randomized construction followed by a bounded local search
// and keeps the best result.
type GRASP struct {
	Inst         *Instance
	RCLSize      int
	Neighborhood Neighborhood
	Step         Step
	// LocalStop bounds each local search; Stop bounds the restarts. A
	// deadline on Stop also cuts off the restart in progress.
	LocalStop StopCondition
	Stop      StopCondition
	Rand      *rand.Rand
	// Workers > 1 runs restarts concurrently; each restart owns a seed drawn
	// from Rand in restart order, so the outcome does not depend on Workers.
	Workers  int
	Observer Observer
}

func (g *GRASP) Construct() (*Solution, error) {
	guard := NewGuard(g.Stop)
	workers := max(g.Workers, 1)
	var best *Solution
	restart := 0
	for {
		var seeds []int64
		for len(seeds) < workers && guard.ShouldContinue() {
			seeds = append(seeds, g.Rand.Int63())
		}
		if len(seeds) == 0 {
			break
		}
		results := make([]*Solution, len(seeds))
		var eg errgroup.Group
		eg.SetLimit(workers)
		for i, seed := range seeds {
			eg.Go(func() error {
				sol, err := g.restart(seed)
				if err != nil {
					return fmt.Errorf("grasp restart %d: %w", restart+i+1, err)
				}
				results[i] = sol
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		for _, sol := range results {
			restart++
			prev := best
			best = pickFinal(g.Inst, best, sol)
			g.Observer.emit("grasp", restart, sol, best != prev)
		}
	}
	if best == nil {
		return NewSolution(g.Inst), nil
	}
	return best, nil
}

func (g *GRASP) restart(seed int64) (*Solution, error) {
	rng := rand.New(rand.NewSource(seed))
	r := NewRandomized(g.Inst, g.RCLSize, rng)
	if d := g.Stop.Deadline; !d.IsZero() {
		until := Until(d)
		r.Stop = &until
	}
	s, err := r.Construct()
	if err != nil {
		return nil, err
	}
	ls := &LocalSearch{Neighborhood: g.Neighborhood, Step: g.Step, Stop: g.LocalStop.WithDeadline(g.Stop.Deadline), Rand: rng}
	return ls.Improve(s)
}

// Improve runs the restarts and returns s unless a strictly better solution was found.
func (g *GRASP) Improve(s *Solution) (*Solution, error) {
	r, err := g.Construct()
	if err != nil {
		return nil, err
	}
	return pickFinal(g.Inst, s, r), nil
}
