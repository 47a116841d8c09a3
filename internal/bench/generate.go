package bench

import (
	"math/rand"

	"pdpdispatch/internal/opt"
)

// GenSpec shapes a random instance.
type GenSpec struct {
	Requests  int
	Vehicles  int
	Capacity  int
	MaxDemand int
	// Fulfill is the fraction of requests that must be served.
	Fulfill        float64
	FairnessWeight float64
	GridSize       int
}

func DefaultGenSpec(n int) GenSpec {
	return GenSpec{
		Requests:       n,
		Vehicles:       max(n/10, 1),
		Capacity:       30,
		MaxDemand:      10,
		Fulfill:        0.9,
		FairnessWeight: 100,
		GridSize:       1000,
	}
}

// Generate draws a uniform instance on a square grid with the depot in the middle.
func Generate(rng *rand.Rand, name string, g GenSpec) opt.RawInstance {
	raw := opt.RawInstance{
		Name:           name,
		NumVehicles:    g.Vehicles,
		Capacity:       g.Capacity,
		MinFulfilled:   int(float64(g.Requests) * g.Fulfill),
		FairnessWeight: g.FairnessWeight,
		Depot:          opt.Point{X: g.GridSize / 2, Y: g.GridSize / 2},
		Demands:        make([]int, g.Requests),
		Pickups:        make([]opt.Point, g.Requests),
		Dropoffs:       make([]opt.Point, g.Requests),
	}
	point := func() opt.Point { return opt.Point{X: rng.Intn(g.GridSize + 1), Y: rng.Intn(g.GridSize + 1)} }
	for i := range raw.Demands {
		raw.Demands[i] = 1 + rng.Intn(max(min(g.MaxDemand, g.Capacity), 1))
		raw.Pickups[i] = point()
		raw.Dropoffs[i] = point()
	}
	return raw
}
