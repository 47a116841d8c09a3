package opt

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidCandidate signals a candidate that does not fit the solution it is applied to.
var ErrInvalidCandidate = errors.New("invalid candidate")

// Candidate proposes inserting a request into a route. PickupPos indexes the
// route before insertion, DropoffPos the route after the pickup is placed.
// RouteIndex == len(Routes) opens a new route. Delta caches the route length
// change computed when the candidate was generated.
type Candidate struct {
	RequestID  int
	RouteIndex int
	PickupPos  int
	DropoffPos int
	Delta      int
}

func at(route []int, i int) int {
	if i < 0 || i >= len(route) {
		return DepotIndex
	}
	return route[i]
}

// InsertionDelta returns the route length change of applying c to s without
// touching the route.
func (inst *Instance) InsertionDelta(s *Solution, c Candidate) int {
	var route []int
	if c.RouteIndex < len(s.Routes) {
		route = s.Routes[c.RouteIndex]
	}
	p, d := inst.PickupIndex(c.RequestID), inst.DropoffIndex(c.RequestID)

	prev, next := at(route, c.PickupPos-1), at(route, c.PickupPos)
	if c.DropoffPos == c.PickupPos+1 {
		return inst.Dist(prev, p) + inst.Dist(p, d) + inst.Dist(d, next) - inst.Dist(prev, next)
	}
	delta := inst.Dist(prev, p) + inst.Dist(p, next) - inst.Dist(prev, next)
	prev, next = at(route, c.DropoffPos-2), at(route, c.DropoffPos-1)
	return delta + inst.Dist(prev, d) + inst.Dist(d, next) - inst.Dist(prev, next)
}

// ObjectiveWithCandidate returns the objective s would have after applying c,
// computed from the cached route sums and c.Delta.
func (inst *Instance) ObjectiveWithCandidate(s *Solution, c Candidate) float64 {
	return inst.newScorer(s).objective(c)
}

// scorer holds the aggregates of one solution so that many candidates can be
// scored in constant time each.
type scorer struct {
	inst    *Instance
	sums    []int
	sum, sq float64
}

func (inst *Instance) newScorer(s *Solution) scorer {
	sc := scorer{inst: inst, sums: s.SumsPerRoute}
	for _, v := range s.SumsPerRoute {
		f := float64(v)
		sc.sum += f
		sc.sq += f * f
	}
	return sc
}

func (sc scorer) objective(c Candidate) float64 {
	d := float64(c.Delta)
	sum, sq := sc.sum+d, sc.sq
	if c.RouteIndex < len(sc.sums) {
		old := float64(sc.sums[c.RouteIndex])
		sq += (old+d)*(old+d) - old*old
	} else {
		sq += d * d
	}
	return sum + sc.inst.FairnessWeight*(1-fairness(sum, sq, sc.inst.NumVehicles))
}

// less orders candidates by resulting objective, then by delta.
func (sc scorer) less(a, b Candidate) bool {
	ka, kb := sc.objective(a), sc.objective(b)
	if ka != kb {
		return ka < kb
	}
	return a.Delta < b.Delta
}

// CandidatesFor lists feasible insertions of an unfulfilled request: appended to
// every existing route and, while a vehicle is unused, as a new route.
func (inst *Instance) CandidatesFor(s *Solution, requestID int) []Candidate {
	if !inst.validRequest(requestID) || s.IsFulfilled(requestID) {
		return nil
	}
	// Solution routes are capacity feasible and return to zero load, so an
	// appended pair fits exactly when the pair alone fits.
	pair := [2]int{inst.PickupIndex(requestID), inst.DropoffIndex(requestID)}
	if !inst.IsCapacityFeasible(pair[:]) {
		return nil
	}
	out := make([]Candidate, 0, len(s.Routes)+1)
	for i, r := range s.Routes {
		c := Candidate{RequestID: requestID, RouteIndex: i, PickupPos: len(r), DropoffPos: len(r) + 1}
		c.Delta = inst.InsertionDelta(s, c)
		out = append(out, c)
	}
	if len(s.Routes) < inst.NumVehicles {
		c := Candidate{RequestID: requestID, RouteIndex: len(s.Routes), PickupPos: 0, DropoffPos: 1}
		c.Delta = inst.InsertionDelta(s, c)
		out = append(out, c)
	}
	return out
}

// AllCandidates lists CandidatesFor every unfulfilled request in id order.
func (inst *Instance) AllCandidates(s *Solution) []Candidate {
	var out []Candidate
	for id := 1; id <= inst.NumRequests; id++ {
		if s.IsFulfilled(id) {
			continue
		}
		out = append(out, inst.CandidatesFor(s, id)...)
	}
	return out
}

// ApplyCandidate inserts c into s and updates the affected route sum and the
// total cost.
func (inst *Instance) ApplyCandidate(s *Solution, c Candidate) error {
	if !inst.validRequest(c.RequestID) {
		return fmt.Errorf("%w: request %d out of range [1, %d]", ErrInvalidCandidate, c.RequestID, inst.NumRequests)
	}
	if s.IsFulfilled(c.RequestID) {
		return fmt.Errorf("%w: request %d already fulfilled", ErrInvalidCandidate, c.RequestID)
	}
	switch {
	case c.RouteIndex < 0 || c.RouteIndex > len(s.Routes):
		return fmt.Errorf("%w: route index %d exceeds %d routes", ErrInvalidCandidate, c.RouteIndex, len(s.Routes))
	case c.RouteIndex == len(s.Routes) && len(s.Routes) >= inst.NumVehicles:
		return fmt.Errorf("%w: no vehicle left for a new route", ErrInvalidCandidate)
	}
	n := 0
	if c.RouteIndex < len(s.Routes) {
		n = len(s.Routes[c.RouteIndex])
	}
	if c.PickupPos < 0 || c.PickupPos > n || c.DropoffPos <= c.PickupPos || c.DropoffPos > n+1 {
		return fmt.Errorf("%w: positions (%d, %d) invalid for route of length %d", ErrInvalidCandidate, c.PickupPos, c.DropoffPos, n)
	}

	delta := inst.InsertionDelta(s, c)
	if c.RouteIndex == len(s.Routes) {
		s.Routes = append(s.Routes, make([]int, 0, 2))
		s.SumsPerRoute = append(s.SumsPerRoute, 0)
	}
	r := s.Routes[c.RouteIndex]
	r = slices.Insert(r, c.PickupPos, inst.PickupIndex(c.RequestID))
	r = slices.Insert(r, c.DropoffPos, inst.DropoffIndex(c.RequestID))
	s.Routes[c.RouteIndex] = r
	s.Fulfilled.Set(uint(c.RequestID))
	s.SumsPerRoute[c.RouteIndex] += delta
	s.TotalCost = inst.objectiveFromSums(s.SumsPerRoute)
	return nil
}

// rankCandidates sorts cs in place by resulting objective, then delta,
// keeping generation order for ties.
func (inst *Instance) rankCandidates(s *Solution, cs []Candidate) {
	type ranked struct {
		c   Candidate
		key float64
	}
	sc := inst.newScorer(s)
	rs := make([]ranked, len(cs))
	for i, c := range cs {
		rs[i] = ranked{c: c, key: sc.objective(c)}
	}
	slices.SortStableFunc(rs, func(a, b ranked) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return a.c.Delta - b.c.Delta
	})
	for i := range rs {
		cs[i] = rs[i].c
	}
}

// bestCandidate returns the first minimal candidate under the ranking order.
func (inst *Instance) bestCandidate(s *Solution, cs []Candidate) Candidate {
	sc := inst.newScorer(s)
	best := cs[0]
	for _, c := range cs[1:] {
		if sc.less(c, best) {
			best = c
		}
	}
	return best
}
