package opt

import (
	"fmt"
	"slices"
	"strings"
)

// Neighborhood enumerates feasible neighbors of a solution. Every returned
// solution is an independent clone; the input is never modified.
type Neighborhood interface {
	Name() string
	Neighbors(s *Solution) []*Solution
}

// Scope selects which routes a neighborhood takes its moves from.
type Scope int

const (
	// ScopeDefault uses the operator's own default.
	ScopeDefault Scope = iota
	ScopeAllRoutes
	ScopeLongestRoute
)

func (sc Scope) String() string {
	switch sc {
	case ScopeAllRoutes:
		return "all"
	case ScopeLongestRoute:
		return "longest"
	}
	return "default"
}

func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "default":
		return ScopeDefault, nil
	case "all":
		return ScopeAllRoutes, nil
	case "longest":
		return ScopeLongestRoute, nil
	}
	return ScopeDefault, fmt.Errorf("unknown scope %q (allowed: default, all, longest)", v)
}

func scopedRoutes(s *Solution, sc, def Scope) []int {
	if sc == ScopeDefault {
		sc = def
	}
	if sc == ScopeLongestRoute {
		if i := s.LongestRoute(); i >= 0 {
			return []int{i}
		}
		return nil
	}
	out := make([]int, len(s.Routes))
	for i := range out {
		out[i] = i
	}
	return out
}

// pairPos locates one request's pickup and dropoff inside a route.
type pairPos struct {
	route, pickup, dropoff int
}

func (inst *Instance) pairsOf(ri int, route []int) []pairPos {
	open := make(map[int]int, len(route)/2)
	out := make([]pairPos, 0, len(route)/2)
	for i, idx := range route {
		if inst.IsPickup(idx) {
			open[idx] = i
			continue
		}
		if pi, ok := open[inst.RequestOf(idx)]; ok {
			out = append(out, pairPos{route: ri, pickup: pi, dropoff: i})
		}
	}
	slices.SortFunc(out, func(a, b pairPos) int { return a.pickup - b.pickup })
	return out
}

// removalDelta is the length saved by removing the pair from its route.
func (inst *Instance) removalDelta(route []int, pp pairPos) int {
	i, j := pp.pickup, pp.dropoff
	p, d := route[i], route[j]
	prev, next := at(route, i-1), at(route, j+1)
	if j == i+1 {
		return inst.Dist(prev, p) + inst.Dist(p, d) + inst.Dist(d, next) - inst.Dist(prev, next)
	}
	saved := inst.Dist(prev, p) + inst.Dist(p, route[i+1]) - inst.Dist(prev, route[i+1])
	return saved + inst.Dist(route[j-1], d) + inst.Dist(d, next) - inst.Dist(route[j-1], next)
}

// worstPair returns the pair with the largest removal saving over the given
// routes, the first one found on ties.
func (inst *Instance) worstPair(s *Solution, routes []int) (pairPos, bool) {
	var worst pairPos
	found, best := false, 0
	for _, ri := range routes {
		route := s.Routes[ri]
		for _, pp := range inst.pairsOf(ri, route) {
			if d := inst.removalDelta(route, pp); !found || d > best {
				worst, best, found = pp, d, true
			}
		}
	}
	return worst, found
}

// targetRoutes lists every vehicle other than src: existing routes plus one
// unopened vehicle when the fleet is not fully used.
func targetRoutes(inst *Instance, s *Solution, src int) []int {
	out := make([]int, 0, inst.NumVehicles)
	for i := range s.Routes {
		if i != src {
			out = append(out, i)
		}
	}
	if len(s.Routes) < inst.NumVehicles {
		out = append(out, len(s.Routes))
	}
	return out
}

// relocate clones s, removes the pair and inserts it adjacently at pos in dst.
// It returns nil when the target route becomes infeasible.
func (inst *Instance) relocate(s *Solution, pp pairPos, dst, pos int) *Solution {
	n := s.Clone()
	src := n.Routes[pp.route]
	p, d := src[pp.pickup], src[pp.dropoff]
	src = slices.Delete(src, pp.dropoff, pp.dropoff+1)
	n.Routes[pp.route] = slices.Delete(src, pp.pickup, pp.pickup+1)
	if dst == len(n.Routes) {
		n.Routes = append(n.Routes, nil)
		n.SumsPerRoute = append(n.SumsPerRoute, 0)
	}
	n.Routes[dst] = slices.Insert(n.Routes[dst], pos, p, d)
	if !inst.IsCapacityFeasible(n.Routes[dst]) {
		return nil
	}
	n.Refresh(inst, pp.route, dst)
	return n
}

// loadBoundaries returns positions of route where the vehicle runs empty.
func (inst *Instance) loadBoundaries(route []int) []int {
	out := []int{0}
	load := 0
	for i, idx := range route {
		load += inst.demand[idx]
		if load == 0 {
			out = append(out, i+1)
		}
	}
	return out
}
