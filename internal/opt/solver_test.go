package opt

import (
	"math/rand"
	"testing"
	"time"
)

func TestRunEveryAlgorithm(t *testing.T) {
	inst := randomInstance(t, 51, 20, 3, 15)
	for _, algo := range Algorithms {
		p := DefaultParams()
		p.Algorithm = algo
		p.Seed = 7
		p.MaxIterations = 5
		p.LocalIterations = 5
		events := 0
		res, err := Run(inst, p, func(Event) { events++ })
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		if !res.Complete || res.Fulfilled < inst.MinFulfilled {
			t.Fatalf("%s: fulfilled %d < %d", algo, res.Fulfilled, inst.MinFulfilled)
		}
		if res.Cost != res.Solution.TotalCost || res.Algo != algo {
			t.Fatalf("%s: inconsistent result %+v", algo, res)
		}
		if events == 0 {
			t.Fatalf("%s: observer never called", algo)
		}
	}
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	inst := randomInstance(t, 52, 20, 3, 15)
	p := DefaultParams()
	p.Algorithm = AlgoGRASP
	p.Seed = 123
	p.MaxIterations = 3
	a, err := Run(inst, p, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := Run(inst, p, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if a.Solution.Fingerprint() != b.Solution.Fingerprint() {
		t.Fatalf("seeded runs differ")
	}
}

func TestImprovementNeverWorsensConstruction(t *testing.T) {
	inst := randomInstance(t, 53, 25, 3, 20)
	greedy := greedySolution(t, inst)
	for _, algo := range []string{AlgoLocal, AlgoVND, AlgoTabu} {
		p := DefaultParams()
		p.Algorithm = algo
		p.Construction = AlgoGreedy
		p.MaxIterations = 20
		res, err := Run(inst, p, nil)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		if res.Cost > greedy.TotalCost+1e-9 {
			t.Fatalf("%s: %f worse than greedy %f", algo, res.Cost, greedy.TotalCost)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := []func(p *Params){
		func(p *Params) { p.Algorithm = "alns" },
		func(p *Params) { p.Construction = "regret" },
		func(p *Params) { p.Step = "sideways" },
		func(p *Params) { p.Scope = "half" },
		func(p *Params) { p.Neighborhoods = []string{"three-opt"} },
		func(p *Params) { p.TabuSize = -1 },
		func(p *Params) { p.MaxSeconds = -1 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: want validation error", i)
		}
	}
}

func TestBuildSharesTimeBudgetWithConstruction(t *testing.T) {
	inst := randomInstance(t, 54, 10, 2, 8)
	for _, algo := range []string{AlgoGreedy, AlgoRandomized, AlgoPilot, AlgoLocal, AlgoVND, AlgoTabu} {
		p := DefaultParams()
		p.Algorithm = algo
		p.MaxSeconds = 5
		sv, err := Build(inst, p, nil)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		var stop *StopCondition
		switch c := sv.Construction.(type) {
		case *Greedy:
			stop = c.Stop
		case *Randomized:
			stop = c.Stop
		case *Pilot:
			stop = c.Stop
		}
		if stop == nil || stop.Deadline.IsZero() {
			t.Fatalf("%s: construction has no deadline", algo)
		}
		if left := time.Until(stop.Deadline); left <= 0 || left > 5*time.Second {
			t.Fatalf("%s: deadline %v away", algo, left)
		}
	}

	p := DefaultParams()
	p.Algorithm = AlgoPilot
	sv, err := Build(inst, p, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if sv.Construction.(*Pilot).Stop != nil {
		t.Fatalf("iteration mode without a time limit must not bound construction")
	}
}

func TestBuildTimeLimitBoundsIterationMode(t *testing.T) {
	inst := randomInstance(t, 55, 10, 2, 8)
	p := DefaultParams()
	p.Algorithm = AlgoTabu
	p.MaxIterations = 1_000_000_000
	p.TimeLimit = 2
	sv, err := Build(inst, p, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tabu := sv.Improvement.(*Tabu)
	if tabu.Stop.MaxIterations != p.MaxIterations || tabu.Stop.Deadline.IsZero() {
		t.Fatalf("tabu stop %v", tabu.Stop)
	}
	if sv.Construction.(*Greedy).Stop == nil {
		t.Fatalf("construction not bounded by the time limit")
	}
}

func TestParamsBudget(t *testing.T) {
	cases := []struct {
		maxSeconds, timeLimit float64
		want                  time.Duration
	}{
		{0, 0, 0},
		{3, 0, 3 * time.Second},
		{0, 2, 2 * time.Second},
		{3, 2, 2 * time.Second},
		{1, 2, time.Second},
	}
	for _, c := range cases {
		p := Params{MaxSeconds: c.maxSeconds, TimeLimit: c.timeLimit}
		if got := p.Budget(); got != c.want {
			t.Fatalf("budget(%g, %g) = %v, want %v", c.maxSeconds, c.timeLimit, got, c.want)
		}
	}
	if err := (Params{Algorithm: AlgoGreedy, TimeLimit: -1}).Validate(); err == nil {
		t.Fatalf("negative time limit accepted")
	}
}

func TestSpentBudgetReturnsPartialConstruction(t *testing.T) {
	inst := randomInstance(t, 56, 15, 3, 12)
	past := Until(time.Now().Add(-time.Second))
	for name, c := range map[string]ConstructionHeuristic{
		"greedy":     &Greedy{Inst: inst, Stop: &past},
		"randomized": &Randomized{Inst: inst, RCLSize: 3, Rand: rand.New(rand.NewSource(1)), Stop: &past},
		"pilot":      &Pilot{Inst: inst, MaxRolloutDepth: 2, MaxCandidates: 2, Stop: &past},
	} {
		s, err := c.Construct()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		mustCheck(t, inst, s)
		if s.FulfilledCount() != 0 {
			t.Fatalf("%s: served %d requests after the deadline", name, s.FulfilledCount())
		}
	}
}
