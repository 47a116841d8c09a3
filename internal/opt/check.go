package opt

import (
	"errors"
	"fmt"
	"math"
)

// ErrInconsistent is returned by Check when a solution breaks a structural invariant.
var ErrInconsistent = errors.New("inconsistent solution")

// Check verifies capacity, precedence, exclusive service, fulfilled bits and
// cached costs of s against inst.
func Check(inst *Instance, s *Solution) error {
	if len(s.Routes) > inst.NumVehicles {
		return fmt.Errorf("%w: %d routes for %d vehicles", ErrInconsistent, len(s.Routes), inst.NumVehicles)
	}
	if len(s.SumsPerRoute) != len(s.Routes) {
		return fmt.Errorf("%w: %d cached sums for %d routes", ErrInconsistent, len(s.SumsPerRoute), len(s.Routes))
	}
	seen := make([]int, 2*inst.NumRequests+1) // route+1 holding the location
	for ri, route := range s.Routes {
		if !inst.IsCapacityFeasible(route) {
			return fmt.Errorf("%w: route %d exceeds capacity", ErrInconsistent, ri)
		}
		for _, idx := range route {
			if idx <= DepotIndex || idx >= len(seen) {
				return fmt.Errorf("%w: route %d holds invalid index %d", ErrInconsistent, ri, idx)
			}
			if seen[idx] != 0 {
				return fmt.Errorf("%w: location %d visited twice", ErrInconsistent, idx)
			}
			if inst.IsDropoff(idx) && seen[inst.PickupIndex(inst.RequestOf(idx))] != ri+1 {
				return fmt.Errorf("%w: dropoff %d before its pickup in route %d", ErrInconsistent, idx, ri)
			}
			seen[idx] = ri + 1
		}
		if got := inst.RouteLength(route); got != s.SumsPerRoute[ri] {
			return fmt.Errorf("%w: route %d cached length %d, actual %d", ErrInconsistent, ri, s.SumsPerRoute[ri], got)
		}
	}
	for id := 1; id <= inst.NumRequests; id++ {
		served := seen[inst.PickupIndex(id)] != 0
		if served != (seen[inst.DropoffIndex(id)] != 0) {
			return fmt.Errorf("%w: request %d only half served", ErrInconsistent, id)
		}
		if served != s.IsFulfilled(id) {
			return fmt.Errorf("%w: request %d fulfilled bit is %v", ErrInconsistent, id, s.IsFulfilled(id))
		}
	}
	if want := inst.Objective(s); math.Abs(want-s.TotalCost) > 1e-6 {
		return fmt.Errorf("%w: cached cost %f, actual %f", ErrInconsistent, s.TotalCost, want)
	}
	return nil
}
