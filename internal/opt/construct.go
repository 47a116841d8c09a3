package opt

import (
	"fmt"
	"math/rand"
)

// ConstructionHeuristic builds a solution from empty. The result may serve
// fewer than MinFulfilled requests when no feasible candidate remains.
type ConstructionHeuristic interface {
	Construct() (*Solution, error)
}

// Greedy always applies the candidate with the lowest resulting objective.
type Greedy struct {
	Inst *Instance
	// Stop, when set, is checked before every insertion; the partial
	// solution built so far is returned once it runs out.
	Stop     *StopCondition
	Observer Observer
}

func (g *Greedy) Construct() (*Solution, error) {
	s := NewSolution(g.Inst)
	guard := optionalGuard(g.Stop)
	for step := 1; s.FulfilledCount() < g.Inst.MinFulfilled && guard.ShouldContinue(); step++ {
		cs := g.Inst.AllCandidates(s)
		if len(cs) == 0 {
			break
		}
		if err := g.Inst.ApplyCandidate(s, g.Inst.bestCandidate(s, cs)); err != nil {
			return nil, fmt.Errorf("greedy step %d: %w", step, err)
		}
		g.Observer.emit("greedy", step, s, true)
	}
	return s, nil
}

// DefaultRCLSize scales the restricted candidate list with the request count.
func DefaultRCLSize(numRequests int) int {
	return min(max(numRequests/20, 2), 10)
}

// Randomized picks uniformly among the RCLSize best candidates at each step.
type Randomized struct {
	Inst     *Instance
	RCLSize  int
	Rand     *rand.Rand
	Stop     *StopCondition
	Observer Observer
}

func NewRandomized(inst *Instance, rclSize int, rng *rand.Rand) *Randomized {
	if rclSize <= 0 {
		rclSize = DefaultRCLSize(inst.NumRequests)
	}
	return &Randomized{Inst: inst, RCLSize: rclSize, Rand: rng}
}

func (r *Randomized) Construct() (*Solution, error) {
	k := r.RCLSize
	if k <= 0 {
		k = DefaultRCLSize(r.Inst.NumRequests)
	}
	s := NewSolution(r.Inst)
	guard := optionalGuard(r.Stop)
	for step := 1; s.FulfilledCount() < r.Inst.MinFulfilled && guard.ShouldContinue(); step++ {
		cs := r.Inst.AllCandidates(s)
		if len(cs) == 0 {
			break
		}
		r.Inst.rankCandidates(s, cs)
		rcl := cs[:min(k, len(cs))]
		if err := r.Inst.ApplyCandidate(s, rcl[r.Rand.Intn(len(rcl))]); err != nil {
			return nil, fmt.Errorf("randomized step %d: %w", step, err)
		}
		r.Observer.emit("randomized", step, s, true)
	}
	return s, nil
}
