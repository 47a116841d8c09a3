package opt

import (
	"fmt"
	"math/rand"
	"strings"
)

// ImprovementHeuristic drives a solution toward a local optimum. It never
// modifies its input and returns the best solution it found.
type ImprovementHeuristic interface {
	Improve(s *Solution) (*Solution, error)
}

const costEpsilon = 1e-9

func improves(candidate, incumbent float64) bool { return candidate+costEpsilon < incumbent }

// Step selects the next solution of a local search.
type Step int

const (
	BestImprovement Step = iota
	FirstImprovement
	RandomStep
)

func (st Step) String() string {
	switch st {
	case FirstImprovement:
		return "first"
	case RandomStep:
		return "random"
	}
	return "best"
}

func ParseStep(v string) (Step, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "best", "best_improvement":
		return BestImprovement, nil
	case "first", "first_improvement":
		return FirstImprovement, nil
	case "random":
		return RandomStep, nil
	}
	return BestImprovement, fmt.Errorf("unknown step %q (allowed: best, first, random)", v)
}

func cheapest(ns []*Solution) *Solution {
	best := ns[0]
	for _, n := range ns[1:] {
		if n.TotalCost < best.TotalCost {
			best = n
		}
	}
	return best
}

// LocalSearch walks a single neighborhood under a step policy.
type LocalSearch struct {
	Neighborhood Neighborhood
	Step         Step
	Stop         StopCondition
	// Rand is required for RandomStep.
	Rand     *rand.Rand
	Observer Observer
}

func (ls *LocalSearch) Improve(s *Solution) (*Solution, error) {
	if ls.Step == RandomStep && ls.Rand == nil {
		return nil, fmt.Errorf("local search: random step needs a random source")
	}
	guard := NewGuard(ls.Stop)
	cur, best := s, s
	for guard.ShouldContinue() {
		ns := ls.Neighborhood.Neighbors(cur)
		if len(ns) == 0 {
			break
		}
		var next *Solution
		switch ls.Step {
		case FirstImprovement:
			for _, n := range ns {
				if improves(n.TotalCost, cur.TotalCost) {
					next = n
					break
				}
			}
		case BestImprovement:
			if c := cheapest(ns); improves(c.TotalCost, cur.TotalCost) {
				next = c
			}
		case RandomStep:
			next = ns[ls.Rand.Intn(len(ns))]
		}
		if next == nil {
			break
		}
		cur = next
		improved := improves(cur.TotalCost, best.TotalCost)
		if improved {
			best = cur
		}
		ls.Observer.emit("ls/"+ls.Neighborhood.Name(), guard.Iterations(), cur, improved)
	}
	return best, nil
}

// VND cycles through neighborhoods, restarting from the first after every improvement.
type VND struct {
	Neighborhoods []Neighborhood
	Stop          StopCondition
	Observer      Observer
}

func (v *VND) Improve(s *Solution) (*Solution, error) {
	if len(v.Neighborhoods) == 0 {
		return nil, fmt.Errorf("vnd: no neighborhoods")
	}
	guard := NewGuard(v.Stop)
	cur := s
	for i := 0; i < len(v.Neighborhoods) && guard.ShouldContinue(); {
		ns := v.Neighborhoods[i].Neighbors(cur)
		if len(ns) == 0 {
			break
		}
		if c := cheapest(ns); improves(c.TotalCost, cur.TotalCost) {
			cur = c
			v.Observer.emit("vnd/"+v.Neighborhoods[i].Name(), guard.Iterations(), cur, true)
			i = 0
			continue
		}
		i++
	}
	return cur, nil
}

// Tabu takes the best neighbor whose fingerprint was not among the last
// TabuSize accepted solutions.
type Tabu struct {
	Neighborhood Neighborhood
	TabuSize     int
	Stop         StopCondition
	Observer     Observer
}

func (t *Tabu) Improve(s *Solution) (*Solution, error) {
	if t.TabuSize < 1 {
		return nil, fmt.Errorf("tabu: list size must be >= 1, got %d", t.TabuSize)
	}
	queue := make([]Fingerprint, 0, t.TabuSize+1)
	tabu := make(map[Fingerprint]struct{}, t.TabuSize+1)
	guard := NewGuard(t.Stop)
	best := s
	for guard.ShouldContinue() {
		var next *Solution
		var nextFP Fingerprint
		for _, n := range t.Neighborhood.Neighbors(best) {
			if next != nil && n.TotalCost >= next.TotalCost {
				continue
			}
			fp := n.Fingerprint()
			if _, hit := tabu[fp]; hit {
				continue
			}
			next, nextFP = n, fp
		}
		if next == nil {
			break
		}
		queue = append(queue, nextFP)
		tabu[nextFP] = struct{}{}
		if len(queue) > t.TabuSize {
			delete(tabu, queue[0])
			queue = queue[1:]
		}
		improved := improves(next.TotalCost, best.TotalCost)
		if t.Observer != nil {
			t.Observer(Event{Algo: "tabu/" + t.Neighborhood.Name(), Step: guard.Iterations(), Cost: next.TotalCost,
				Fulfilled: next.FulfilledCount(), Improved: improved, Fingerprint: nextFP})
		}
		if !improved {
			break
		}
		best = next
	}
	return best, nil
}
