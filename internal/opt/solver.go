package opt

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"
)

// Algorithm names accepted by Build.
const (
	AlgoGreedy     = "greedy"
	AlgoRandomized = "randomized"
	AlgoPilot      = "pilot"
	AlgoLocal      = "ls"
	AlgoVND        = "vnd"
	AlgoTabu       = "tabu"
	AlgoGRASP      = "grasp"
)

var Algorithms = []string{AlgoGreedy, AlgoRandomized, AlgoPilot, AlgoLocal, AlgoVND, AlgoTabu, AlgoGRASP}

// Neighborhood names accepted by Build.
const (
	NbTwoSwap     = "two-swap"
	NbVehicleMove = "vehicle-move"
	NbVehicleSwap = "vehicle-swap"
)

// Params selects and tunes an algorithm pipeline.
type Params struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	// Construction seeds ls, vnd and tabu: greedy, randomized or pilot.
	Construction    string   `json:"construction,omitempty" yaml:"construction"`
	Seed            int64    `json:"seed,omitempty" yaml:"seed"`
	RCLSize         int      `json:"rclSize,omitempty" yaml:"rcl_size"`
	PilotDepth      int      `json:"pilotDepth,omitempty" yaml:"pilot_depth"`
	PilotCandidates int      `json:"pilotCandidates,omitempty" yaml:"pilot_candidates"`
	Workers         int      `json:"workers,omitempty" yaml:"workers"`
	TabuSize        int      `json:"tabuSize,omitempty" yaml:"tabu_size"`
	Neighborhoods   []string `json:"neighborhoods,omitempty" yaml:"neighborhoods"`
	Step            string   `json:"step,omitempty" yaml:"step"`
	Scope           string   `json:"scope,omitempty" yaml:"scope"`
	MaxIterations   int      `json:"maxIterations,omitempty" yaml:"max_iterations"`
	MaxSeconds      float64  `json:"maxSeconds,omitempty" yaml:"max_seconds"`
	LocalIterations int      `json:"localIterations,omitempty" yaml:"local_iterations"`
	// TimeLimit caps the wall-clock time of the whole run, whichever stop
	// mode is in effect.
	TimeLimit float64 `json:"timeLimit,omitempty" yaml:"time_limit"`
}

func DefaultParams() Params {
	return Params{
		Algorithm:       AlgoPilot,
		Construction:    AlgoGreedy,
		PilotDepth:      3,
		PilotCandidates: 3,
		Workers:         1,
		TabuSize:        20,
		Neighborhoods:   []string{NbTwoSwap, NbVehicleMove, NbVehicleSwap},
		Step:            "best",
		MaxIterations:   15,
		LocalIterations: 15,
		RCLSize:         4,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	if !slices.Contains(Algorithms, p.Algorithm) {
		return fmt.Errorf("invalid algorithm: %s (allowed: %s)", p.Algorithm, strings.Join(Algorithms, ","))
	}
	switch p.Construction {
	case "", AlgoGreedy, AlgoRandomized, AlgoPilot:
	default:
		return fmt.Errorf("invalid construction: %s", p.Construction)
	}
	if p.RCLSize < 0 || p.PilotDepth < 0 || p.PilotCandidates < 0 || p.Workers < 0 || p.TabuSize < 0 {
		return fmt.Errorf("sizes must be >= 0")
	}
	if p.MaxIterations < 0 || p.MaxSeconds < 0 || p.LocalIterations < 0 || p.TimeLimit < 0 {
		return fmt.Errorf("stop limits must be >= 0")
	}
	if _, err := ParseStep(p.Step); err != nil {
		return err
	}
	if _, err := ParseScope(p.Scope); err != nil {
		return err
	}
	for _, n := range p.Neighborhoods {
		if _, err := NewNeighborhood(nil, n, ScopeDefault); err != nil {
			return err
		}
	}
	return nil
}

func (p Params) stop() StopCondition {
	if p.MaxSeconds > 0 {
		return Time(p.MaxSeconds)
	}
	return Iterations(p.MaxIterations)
}

// Budget is the wall-clock allowance of one run: the smaller of MaxSeconds
// and TimeLimit, zero when neither is set.
func (p Params) Budget() time.Duration {
	secs := p.MaxSeconds
	if p.TimeLimit > 0 && (secs == 0 || p.TimeLimit < secs) {
		secs = p.TimeLimit
	}
	return time.Duration(secs * float64(time.Second))
}

// NewNeighborhood returns the operator registered under name.
func NewNeighborhood(inst *Instance, name string, scope Scope) (Neighborhood, error) {
	switch strings.ToLower(name) {
	case NbTwoSwap:
		return &TwoSwap{Inst: inst, Scope: scope}, nil
	case NbVehicleMove:
		return &VehicleMove{Inst: inst, Scope: scope}, nil
	case NbVehicleSwap:
		return &VehicleSwap{Inst: inst, Scope: scope}, nil
	}
	return nil, fmt.Errorf("unknown neighborhood %q (allowed: %s, %s, %s)", name, NbTwoSwap, NbVehicleMove, NbVehicleSwap)
}

// Solver is a construction heuristic optionally followed by an improvement heuristic.
type Solver struct {
	Algo         string
	Construction ConstructionHeuristic
	Improvement  ImprovementHeuristic
}

// Build wires the pipeline described by p. A zero Seed draws one from the clock.
// The time budget starts when Build returns and is shared by construction and
// improvement; every loop returns its best solution once it is spent.
func Build(inst *Instance, p Params, obs Observer) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	step, _ := ParseStep(p.Step)
	scope, _ := ParseScope(p.Scope)
	names := p.Neighborhoods
	if len(names) == 0 {
		names = DefaultParams().Neighborhoods
	}
	nbs := make([]Neighborhood, 0, len(names))
	for _, n := range names {
		nb, err := NewNeighborhood(inst, n, scope)
		if err != nil {
			return nil, err
		}
		nbs = append(nbs, nb)
	}

	var deadline time.Time
	var cstop *StopCondition
	if b := p.Budget(); b > 0 {
		deadline = time.Now().Add(b)
		until := Until(deadline)
		cstop = &until
	}
	istop := p.stop().WithDeadline(deadline)

	construct := func(name string) ConstructionHeuristic {
		switch name {
		case AlgoRandomized:
			r := NewRandomized(inst, p.RCLSize, rng)
			r.Stop, r.Observer = cstop, obs
			return r
		case AlgoPilot:
			return &Pilot{Inst: inst, MaxRolloutDepth: p.PilotDepth, MaxCandidates: p.PilotCandidates, Workers: p.Workers,
				Stop: cstop, Observer: obs}
		}
		return &Greedy{Inst: inst, Stop: cstop, Observer: obs}
	}

	sv := &Solver{Algo: p.Algorithm}
	switch p.Algorithm {
	case AlgoGreedy, AlgoRandomized, AlgoPilot:
		sv.Construction = construct(p.Algorithm)
	case AlgoLocal:
		sv.Construction = construct(p.Construction)
		sv.Improvement = &LocalSearch{Neighborhood: nbs[0], Step: step, Stop: istop, Rand: rng, Observer: obs}
	case AlgoVND:
		sv.Construction = construct(p.Construction)
		sv.Improvement = &VND{Neighborhoods: nbs, Stop: istop, Observer: obs}
	case AlgoTabu:
		sv.Construction = construct(p.Construction)
		sv.Improvement = &Tabu{Neighborhood: nbs[0], TabuSize: max(p.TabuSize, 1), Stop: istop, Observer: obs}
	case AlgoGRASP:
		sv.Construction = &GRASP{Inst: inst, RCLSize: p.RCLSize, Neighborhood: nbs[0], Step: step,
			LocalStop: Iterations(p.LocalIterations), Stop: istop, Rand: rng, Workers: p.Workers, Observer: obs}
	}
	return sv, nil
}

func (sv *Solver) Solve() (*Solution, error) {
	s, err := sv.Construction.Construct()
	if err != nil {
		return nil, fmt.Errorf("%s: construct: %w", sv.Algo, err)
	}
	if sv.Improvement == nil {
		return s, nil
	}
	s, err = sv.Improvement.Improve(s)
	if err != nil {
		return nil, fmt.Errorf("%s: improve: %w", sv.Algo, err)
	}
	return s, nil
}

// Result summarizes one solver run.
type Result struct {
	Algo      string
	Solution  *Solution
	Cost      float64
	Fulfilled int
	Complete  bool
	Elapsed   time.Duration
}

// Run builds and runs the pipeline described by p, then checks the result.
func Run(inst *Instance, p Params, obs Observer) (Result, error) {
	sv, err := Build(inst, p, obs)
	if err != nil {
		return Result{}, err
	}
	start := time.Now()
	s, err := sv.Solve()
	if err != nil {
		return Result{}, err
	}
	elapsed := time.Since(start)
	if err := Check(inst, s); err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.Algorithm, err)
	}
	return Result{
		Algo:      p.Algorithm,
		Solution:  s,
		Cost:      s.TotalCost,
		Fulfilled: s.FulfilledCount(),
		Complete:  s.Complete(inst),
		Elapsed:   elapsed,
	}, nil
}
