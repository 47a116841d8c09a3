package opt

import (
	"math/rand"
	"testing"
	"time"
)

func TestGuardIterationsExact(t *testing.T) {
	g := NewGuard(Iterations(3))
	for i := 0; i < 3; i++ {
		if !g.ShouldContinue() {
			t.Fatalf("call %d returned false", i+1)
		}
	}
	if g.ShouldContinue() || g.ShouldContinue() {
		t.Fatalf("guard must stay exhausted after 3 calls")
	}
	if g.Iterations() != 5 {
		t.Fatalf("iterations %d", g.Iterations())
	}
}

func TestGuardTime(t *testing.T) {
	now := time.Unix(0, 0)
	g := newGuardWithClock(Time(2), func() time.Time { return now })
	if !g.ShouldContinue() {
		t.Fatalf("fresh time guard should continue")
	}
	now = now.Add(1999 * time.Millisecond)
	if !g.ShouldContinue() {
		t.Fatalf("1.999s < 2s should continue")
	}
	now = now.Add(time.Millisecond)
	if g.ShouldContinue() {
		t.Fatalf("2s elapsed should stop")
	}
}

func TestLocalSearchBestIsStrictDescent(t *testing.T) {
	inst := randomInstance(t, 31, 30, 4, 40)
	start := greedySolution(t, inst)
	var costs []float64
	ls := &LocalSearch{
		Neighborhood: &TwoSwap{Inst: inst},
		Step:         BestImprovement,
		Stop:         Iterations(50),
		Observer:     func(e Event) { costs = append(costs, e.Cost) },
	}
	got, err := ls.Improve(start)
	if err != nil {
		t.Fatalf("improve: %v", err)
	}
	mustCheck(t, inst, got)
	prev := start.TotalCost
	for i, c := range costs {
		if !(c < prev) {
			t.Fatalf("step %d: cost %f not below %f", i+1, c, prev)
		}
		prev = c
	}
	if got.TotalCost > start.TotalCost {
		t.Fatalf("local search worsened %f -> %f", start.TotalCost, got.TotalCost)
	}
}

func TestLocalSearchFirstAndRandom(t *testing.T) {
	inst := randomInstance(t, 32, 25, 3, 20)
	start := greedySolution(t, inst)
	first := &LocalSearch{Neighborhood: &VehicleSwap{Inst: inst}, Step: FirstImprovement, Stop: Iterations(20)}
	got, err := first.Improve(start)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	mustCheck(t, inst, got)
	if got.TotalCost > start.TotalCost {
		t.Fatalf("first improvement worsened the solution")
	}

	random := &LocalSearch{Neighborhood: &TwoSwap{Inst: inst}, Step: RandomStep, Stop: Iterations(20)}
	if _, err := random.Improve(start); err == nil {
		t.Fatalf("random step without a random source must fail")
	}
	random.Rand = rand.New(rand.NewSource(3))
	got, err = random.Improve(start)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	mustCheck(t, inst, got)
	if got.TotalCost > start.TotalCost {
		t.Fatalf("random walk must return the best solution seen")
	}
}

func TestLocalSearchStopsOnEmptyNeighborhood(t *testing.T) {
	inst := lineInstance(t)
	s := NewSolution(inst)
	got, err := (&LocalSearch{Neighborhood: &TwoSwap{Inst: inst}, Stop: Iterations(10)}).Improve(s)
	if err != nil || got != s {
		t.Fatalf("want the input back, got %v, %v", got, err)
	}
}

func TestVNDNeverWorsens(t *testing.T) {
	inst := randomInstance(t, 33, 30, 4, 30)
	start := greedySolution(t, inst)
	var costs []float64
	v := &VND{
		Neighborhoods: allNeighborhoods(inst, ScopeDefault),
		Stop:          Iterations(200),
		Observer:      func(e Event) { costs = append(costs, e.Cost) },
	}
	got, err := v.Improve(start)
	if err != nil {
		t.Fatalf("vnd: %v", err)
	}
	mustCheck(t, inst, got)
	prev := start.TotalCost
	for _, c := range costs {
		if !(c < prev) {
			t.Fatalf("vnd accepted a non-improving move")
		}
		prev = c
	}
	if got.TotalCost > start.TotalCost {
		t.Fatalf("vnd worsened the solution")
	}
	if _, err := (&VND{Stop: Iterations(1)}).Improve(start); err == nil {
		t.Fatalf("vnd without neighborhoods must fail")
	}
}

func TestTabuNeverRevisitsRecentFingerprints(t *testing.T) {
	inst := randomInstance(t, 34, 30, 4, 30)
	start := greedySolution(t, inst)
	const k = 3
	var fps []Fingerprint
	tb := &Tabu{
		Neighborhood: &TwoSwap{Inst: inst},
		TabuSize:     k,
		Stop:         Iterations(100),
		Observer:     func(e Event) { fps = append(fps, e.Fingerprint) },
	}
	got, err := tb.Improve(start)
	if err != nil {
		t.Fatalf("tabu: %v", err)
	}
	mustCheck(t, inst, got)
	for i, fp := range fps {
		for j := max(0, i-k); j < i; j++ {
			if fps[j] == fp {
				t.Fatalf("step %d repeats tabu fingerprint from step %d", i+1, j+1)
			}
		}
	}
	if got.TotalCost > start.TotalCost {
		t.Fatalf("tabu returned a worse solution")
	}
	if _, err := (&Tabu{Neighborhood: &TwoSwap{Inst: inst}, Stop: Iterations(1)}).Improve(start); err == nil {
		t.Fatalf("tabu size 0 must fail")
	}
}

func TestGRASPKeepsBestAndIsWorkerIndependent(t *testing.T) {
	inst := randomInstance(t, 35, 20, 3, 20)
	run := func(workers int) *Solution {
		g := &GRASP{
			Inst:         inst,
			RCLSize:      4,
			Neighborhood: &TwoSwap{Inst: inst},
			LocalStop:    Iterations(10),
			Stop:         Iterations(6),
			Rand:         rand.New(rand.NewSource(99)),
			Workers:      workers,
		}
		s, err := g.Construct()
		if err != nil {
			t.Fatalf("grasp: %v", err)
		}
		mustCheck(t, inst, s)
		if !s.Complete(inst) {
			t.Fatalf("grasp result incomplete")
		}
		return s
	}
	a, b := run(1), run(3)
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("worker count changed the result: %f vs %f", a.TotalCost, b.TotalCost)
	}

	g := &GRASP{Inst: inst, Neighborhood: &TwoSwap{Inst: inst}, LocalStop: Iterations(5), Stop: Iterations(2), Rand: rand.New(rand.NewSource(1))}
	start := greedySolution(t, inst)
	got, err := g.Improve(start)
	if err != nil {
		t.Fatalf("grasp improve: %v", err)
	}
	if got.TotalCost > start.TotalCost {
		t.Fatalf("grasp improve returned a worse solution")
	}
}

func TestGuardDeadlineOverridesIterations(t *testing.T) {
	now := time.Unix(100, 0)
	g := newGuardWithClock(Iterations(10).WithDeadline(now.Add(time.Second)), func() time.Time { return now })
	if !g.ShouldContinue() {
		t.Fatalf("guard before deadline should continue")
	}
	now = now.Add(time.Second)
	if g.ShouldContinue() {
		t.Fatalf("guard at deadline should stop with iterations left")
	}

	var unset *Guard
	if !unset.ShouldContinue() {
		t.Fatalf("nil guard never stops")
	}
	c := Iterations(3).WithDeadline(now).WithDeadline(now.Add(time.Hour))
	if !c.Deadline.Equal(now) {
		t.Fatalf("WithDeadline must keep the earlier deadline, got %v", c.Deadline)
	}
	if !Iterations(3).WithDeadline(time.Time{}).Deadline.IsZero() {
		t.Fatalf("zero deadline must not be set")
	}
}
