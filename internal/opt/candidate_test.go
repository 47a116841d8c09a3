package opt

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestCandidatesForOpensNewRouteOnlyWithFreeVehicle(t *testing.T) {
	inst := lineInstance(t)
	s := NewSolution(inst)
	cs := inst.CandidatesFor(s, 1)
	if len(cs) != 1 || cs[0].RouteIndex != 0 || cs[0].PickupPos != 0 || cs[0].DropoffPos != 1 {
		t.Fatalf("unexpected candidates %+v", cs)
	}
	if err := inst.ApplyCandidate(s, cs[0]); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := inst.CandidatesFor(s, 1); got != nil {
		t.Fatalf("fulfilled request must have no candidates, got %+v", got)
	}
	cs = inst.CandidatesFor(s, 2)
	if len(cs) != 1 || cs[0].RouteIndex != 0 || cs[0].PickupPos != 2 {
		t.Fatalf("single vehicle in use: want one append candidate, got %+v", cs)
	}
	if cs[0].Delta != 4 {
		t.Fatalf("append delta %d want 4", cs[0].Delta)
	}
}

func TestCandidatesForSkipsOversizedDemand(t *testing.T) {
	inst, err := NewInstance(RawInstance{
		NumVehicles: 2, Capacity: 2, Demands: []int{3},
		Pickups: []Point{{1, 0}}, Dropoffs: []Point{{1, 1}},
	})
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	if cs := inst.CandidatesFor(NewSolution(inst), 1); len(cs) != 0 {
		t.Fatalf("demand above capacity should yield no candidates, got %+v", cs)
	}
}

func TestApplyCandidateRejectsBadCandidates(t *testing.T) {
	inst := lineInstance(t)
	s := NewSolution(inst)
	bad := []Candidate{
		{RequestID: 1, RouteIndex: 1, PickupPos: 0, DropoffPos: 1},
		{RequestID: 0, RouteIndex: 0, PickupPos: 0, DropoffPos: 1},
		{RequestID: 3, RouteIndex: 0, PickupPos: 0, DropoffPos: 1},
		{RequestID: 1, RouteIndex: 0, PickupPos: 0, DropoffPos: 0},
		{RequestID: 1, RouteIndex: 0, PickupPos: 1, DropoffPos: 2},
	}
	for _, c := range bad {
		if err := inst.ApplyCandidate(s, c); !errors.Is(err, ErrInvalidCandidate) {
			t.Fatalf("%+v: want ErrInvalidCandidate, got %v", c, err)
		}
	}
	if len(s.Routes) != 0 || s.FulfilledCount() != 0 {
		t.Fatalf("rejected candidates must not mutate the solution")
	}

	ok := Candidate{RequestID: 1, RouteIndex: 0, PickupPos: 0, DropoffPos: 1}
	if err := inst.ApplyCandidate(s, ok); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := inst.ApplyCandidate(s, ok); !errors.Is(err, ErrInvalidCandidate) {
		t.Fatalf("second apply of a fulfilled request: %v", err)
	}
	// fleet of one is in use, a second route cannot be opened
	if err := inst.ApplyCandidate(s, Candidate{RequestID: 2, RouteIndex: 1, PickupPos: 0, DropoffPos: 1}); !errors.Is(err, ErrInvalidCandidate) {
		t.Fatalf("new route beyond fleet: %v", err)
	}
}

func TestInsertionDeltaMatchesRecompute(t *testing.T) {
	inst := randomInstance(t, 7, 30, 3, 5)
	rng := rand.New(rand.NewSource(11))
	s := NewSolution(inst)
	for id := 1; id <= inst.NumRequests; id++ {
		ri := rng.Intn(len(s.Routes) + 1)
		if ri == len(s.Routes) && len(s.Routes) == inst.NumVehicles {
			ri = 0
		}
		n := 0
		if ri < len(s.Routes) {
			n = len(s.Routes[ri])
		}
		pp := rng.Intn(n + 1)
		dp := pp + 1 + rng.Intn(n-pp+1)
		c := Candidate{RequestID: id, RouteIndex: ri, PickupPos: pp, DropoffPos: dp}
		c.Delta = inst.InsertionDelta(s, c)
		before := 0
		if ri < len(s.Routes) {
			before = inst.RouteLength(s.Routes[ri])
		}
		predicted := inst.ObjectiveWithCandidate(s, c)
		if err := inst.ApplyCandidate(s, c); err != nil {
			t.Fatalf("apply %+v: %v", c, err)
		}
		if got := inst.RouteLength(s.Routes[ri]) - before; got != c.Delta {
			t.Fatalf("request %d: delta %d, recomputed %d", id, c.Delta, got)
		}
		if math.Abs(predicted-s.TotalCost) > 1e-6 {
			t.Fatalf("request %d: predicted objective %f, got %f", id, predicted, s.TotalCost)
		}
		if math.Abs(inst.Objective(s)-s.TotalCost) > 1e-6 {
			t.Fatalf("request %d: cached cost drifted", id)
		}
	}
}

func TestRankCandidatesOrdersByObjective(t *testing.T) {
	inst := randomInstance(t, 5, 12, 4, 50)
	s := NewSolution(inst)
	cs := inst.AllCandidates(s)
	inst.rankCandidates(s, cs)
	keys := make([]float64, len(cs))
	for i, c := range cs {
		keys[i] = inst.ObjectiveWithCandidate(s, c)
	}
	if !slices.IsSorted(keys) {
		t.Fatalf("candidates not ranked: %v", keys)
	}
	if best := inst.bestCandidate(s, inst.AllCandidates(s)); best != cs[0] {
		t.Fatalf("bestCandidate %+v differs from ranked head %+v", best, cs[0])
	}
}
