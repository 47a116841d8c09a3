package opt

// TwoSwap exchanges adjacent stops within a route. A request's pickup directly
// followed by its own dropoff is never swapped.
type TwoSwap struct {
	Inst  *Instance
	Scope Scope
}

func (t *TwoSwap) Name() string { return "two-swap" }

func (t *TwoSwap) Neighbors(s *Solution) []*Solution {
	inst := t.Inst
	out := []*Solution{}
	for _, ri := range scopedRoutes(s, t.Scope, ScopeAllRoutes) {
		route := s.Routes[ri]
		load := 0
		for i := 0; i+1 < len(route); i++ {
			a, b := route[i], route[i+1]
			before := load
			load += inst.demand[a]
			if inst.IsPickup(a) && b == inst.DropoffIndex(a) {
				continue
			}
			// Only the load after position i changes when a and b trade places.
			if l := before + inst.demand[b]; l < 0 || l > inst.Capacity {
				continue
			}
			prev, next := at(route, i-1), at(route, i+2)
			delta := inst.Dist(prev, b) + inst.Dist(a, next) - inst.Dist(prev, a) - inst.Dist(b, next)

			n := s.Clone()
			nr := n.Routes[ri]
			nr[i], nr[i+1] = nr[i+1], nr[i]
			n.SumsPerRoute[ri] += delta
			n.TotalCost = inst.objectiveFromSums(n.SumsPerRoute)
			out = append(out, n)
		}
	}
	return out
}

// VehicleMove takes the pair whose removal saves the most and moves it to the
// front of every other vehicle's route. By default the pair comes from the
// longest route.
type VehicleMove struct {
	Inst  *Instance
	Scope Scope
}

func (v *VehicleMove) Name() string { return "vehicle-move" }

func (v *VehicleMove) Neighbors(s *Solution) []*Solution {
	out := []*Solution{}
	pp, ok := v.Inst.worstPair(s, scopedRoutes(s, v.Scope, ScopeLongestRoute))
	if !ok {
		return out
	}
	for _, dst := range targetRoutes(v.Inst, s, pp.route) {
		if n := v.Inst.relocate(s, pp, dst, 0); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// VehicleSwap takes the globally worst pair and reinserts it into every other
// route at the cheapest position where that route runs empty.
type VehicleSwap struct {
	Inst  *Instance
	Scope Scope
}

func (v *VehicleSwap) Name() string { return "vehicle-swap" }

func (v *VehicleSwap) Neighbors(s *Solution) []*Solution {
	inst := v.Inst
	out := []*Solution{}
	pp, ok := inst.worstPair(s, scopedRoutes(s, v.Scope, ScopeAllRoutes))
	if !ok {
		return out
	}
	src := s.Routes[pp.route]
	p, d := src[pp.pickup], src[pp.dropoff]
	for _, dst := range targetRoutes(inst, s, pp.route) {
		var route []int
		if dst < len(s.Routes) {
			route = s.Routes[dst]
		}
		bestPos, bestDelta := -1, 0
		for _, pos := range inst.loadBoundaries(route) {
			prev, next := at(route, pos-1), at(route, pos)
			delta := inst.Dist(prev, p) + inst.Dist(p, d) + inst.Dist(d, next) - inst.Dist(prev, next)
			if bestPos < 0 || delta < bestDelta {
				bestPos, bestDelta = pos, delta
			}
		}
		if n := inst.relocate(s, pp, dst, bestPos); n != nil {
			out = append(out, n)
		}
	}
	return out
}
