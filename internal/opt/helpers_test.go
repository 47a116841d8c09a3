package opt

import (
	"math/rand"
	"testing"
)

// lineInstance is the two-request, single-vehicle instance whose greedy route
// can be computed by hand.
func lineInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance(RawInstance{
		Name:         "line",
		NumVehicles:  1,
		Capacity:     10,
		MinFulfilled: 2,
		Depot:        Point{0, 0},
		Demands:      []int{3, 3},
		Pickups:      []Point{{1, 0}, {2, 0}},
		Dropoffs:     []Point{{1, 1}, {2, 1}},
	})
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	return inst
}

func randomInstance(t *testing.T, seed int64, n, vehicles int, rho float64) *Instance {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	raw := RawInstance{
		Name:           "rand",
		NumVehicles:    vehicles,
		Capacity:       10,
		MinFulfilled:   n * 3 / 4,
		FairnessWeight: rho,
		Depot:          Point{50, 50},
	}
	for i := 0; i < n; i++ {
		raw.Demands = append(raw.Demands, 1+rng.Intn(5))
		raw.Pickups = append(raw.Pickups, Point{rng.Intn(101), rng.Intn(101)})
		raw.Dropoffs = append(raw.Dropoffs, Point{rng.Intn(101), rng.Intn(101)})
	}
	inst, err := NewInstance(raw)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	return inst
}

func greedySolution(t *testing.T, inst *Instance) *Solution {
	t.Helper()
	s, err := (&Greedy{Inst: inst}).Construct()
	if err != nil {
		t.Fatalf("greedy: %v", err)
	}
	if err := Check(inst, s); err != nil {
		t.Fatalf("greedy result: %v", err)
	}
	return s
}

func mustCheck(t *testing.T, inst *Instance, sols ...*Solution) {
	t.Helper()
	for i, s := range sols {
		if err := Check(inst, s); err != nil {
			t.Fatalf("solution %d: %v", i, err)
		}
	}
}
