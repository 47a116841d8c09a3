package opt

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Pilot scores the MaxCandidates best one-step extensions by a bounded greedy
// rollout and commits only the first step of the cheapest rollout.
type Pilot struct {
	Inst            *Instance
	MaxRolloutDepth int
	MaxCandidates   int
	// Workers > 1 evaluates rollouts concurrently. Results do not depend on it.
	Workers  int
	Stop     *StopCondition
	Observer Observer
}

func NewPilot(inst *Instance, maxRolloutDepth, maxCandidates int) *Pilot {
	return &Pilot{Inst: inst, MaxRolloutDepth: maxRolloutDepth, MaxCandidates: maxCandidates}
}

func (p *Pilot) Construct() (*Solution, error) {
	inst := p.Inst
	cur := NewSolution(inst)
	var best *Solution
	guard := optionalGuard(p.Stop)

	for step := 1; cur.FulfilledCount() < inst.NumRequests; step++ {
		if !guard.ShouldContinue() {
			break
		}
		cs := inst.AllCandidates(cur)
		if len(cs) == 0 {
			break
		}
		inst.rankCandidates(cur, cs)
		if p.MaxCandidates > 0 && len(cs) > p.MaxCandidates {
			cs = cs[:p.MaxCandidates]
		}

		rollouts, err := p.rolloutAll(cur, cs)
		if err != nil {
			return nil, fmt.Errorf("pilot step %d: %w", step, err)
		}
		bi := 0
		for i := 1; i < len(rollouts); i++ {
			if rollouts[i].TotalCost < rollouts[bi].TotalCost {
				bi = i
			}
		}
		if err := inst.ApplyCandidate(cur, cs[bi]); err != nil {
			return nil, fmt.Errorf("pilot step %d: %w", step, err)
		}

		// Until a complete rollout exists take any; afterwards only cheaper complete ones.
		roll := rollouts[bi]
		if best == nil || !best.Complete(inst) || (roll.Complete(inst) && roll.TotalCost < best.TotalCost) {
			best = roll
		}
		p.Observer.emit("pilot", step, cur, best == roll)
	}
	return pickFinal(inst, best, cur), nil
}

func (p *Pilot) rolloutAll(cur *Solution, cs []Candidate) ([]*Solution, error) {
	out := make([]*Solution, len(cs))
	run := func(i int) error {
		tmp := cur.Clone()
		if err := p.Inst.ApplyCandidate(tmp, cs[i]); err != nil {
			return err
		}
		r, err := p.rollout(tmp)
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	}
	if p.Workers <= 1 {
		for i := range cs {
			if err := run(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	var g errgroup.Group
	g.SetLimit(p.Workers)
	for i := range cs {
		g.Go(func() error { return run(i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// rollout extends s greedily for at most MaxRolloutDepth steps, stopping once
// the minimum is met and no insertion would shorten anything.
func (p *Pilot) rollout(s *Solution) (*Solution, error) {
	inst := p.Inst
	for i := 0; i < p.MaxRolloutDepth; i++ {
		cs := inst.AllCandidates(s)
		if len(cs) == 0 {
			break
		}
		if s.Complete(inst) && minDelta(cs) >= 0 {
			break
		}
		c := inst.bestCandidate(s, cs)
		if err := inst.ApplyCandidate(s, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// minDelta is the smallest length increase among cs, which must be non-empty.
func minDelta(cs []Candidate) int {
	m := cs[0].Delta
	for _, c := range cs[1:] {
		m = min(m, c.Delta)
	}
	return m
}

// pickFinal prefers the cheapest solution meeting the minimum, then the one
// serving the most requests.
func pickFinal(inst *Instance, sols ...*Solution) *Solution {
	var out *Solution
	for _, s := range sols {
		switch {
		case s == nil:
		case out == nil:
			out = s
		case s.Complete(inst) != out.Complete(inst):
			if s.Complete(inst) {
				out = s
			}
		case s.Complete(inst):
			if s.TotalCost < out.TotalCost {
				out = s
			}
		case s.FulfilledCount() > out.FulfilledCount() ||
			(s.FulfilledCount() == out.FulfilledCount() && s.TotalCost < out.TotalCost):
			out = s
		}
	}
	return out
}
