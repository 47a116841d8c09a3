package opt

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Solution is the mutable state of one search branch. SumsPerRoute holds the
// cached length of each route and TotalCost the cached objective.
type Solution struct {
	Routes       [][]int
	Fulfilled    *bitset.BitSet
	TotalCost    float64
	SumsPerRoute []int
}

// NewSolution returns an empty solution sized for inst.
func NewSolution(inst *Instance) *Solution {
	s := &Solution{
		Routes:       make([][]int, 0, inst.NumVehicles),
		Fulfilled:    bitset.New(uint(inst.NumRequests + 1)),
		SumsPerRoute: make([]int, 0, inst.NumVehicles),
	}
	s.TotalCost = inst.objectiveFromSums(s.SumsPerRoute)
	return s
}

// Clone returns a deep copy sharing no backing storage with s.
func (s *Solution) Clone() *Solution {
	c := &Solution{
		Routes:       make([][]int, len(s.Routes), cap(s.Routes)),
		Fulfilled:    s.Fulfilled.Clone(),
		TotalCost:    s.TotalCost,
		SumsPerRoute: make([]int, len(s.SumsPerRoute), cap(s.SumsPerRoute)),
	}
	for i, r := range s.Routes {
		c.Routes[i] = append(make([]int, 0, len(r)+2), r...)
	}
	copy(c.SumsPerRoute, s.SumsPerRoute)
	return c
}

func (s *Solution) FulfilledCount() int { return int(s.Fulfilled.Count()) }

func (s *Solution) IsFulfilled(requestID int) bool { return s.Fulfilled.Test(uint(requestID)) }

// Complete reports whether s serves at least the instance minimum.
func (s *Solution) Complete(inst *Instance) bool { return s.FulfilledCount() >= inst.MinFulfilled }

// TotalLength is the sum of cached route lengths.
func (s *Solution) TotalLength() int {
	total := 0
	for _, v := range s.SumsPerRoute {
		total += v
	}
	return total
}

// LongestRoute returns the index of the route with the largest cached length,
// or -1 when there are no routes.
func (s *Solution) LongestRoute() int {
	best, idx := -1, -1
	for i, v := range s.SumsPerRoute {
		if v > best {
			best, idx = v, i
		}
	}
	return idx
}

// Refresh recomputes the cached length of the given routes and the total cost.
func (s *Solution) Refresh(inst *Instance, routes ...int) {
	for _, r := range routes {
		s.SumsPerRoute[r] = inst.RouteLength(s.Routes[r])
	}
	s.TotalCost = inst.objectiveFromSums(s.SumsPerRoute)
}

// Fingerprint identifies a solution by route contents, fulfilled bits and cost.
type Fingerprint [16]byte

func (s *Solution) Fingerprint() Fingerprint {
	h := fnv.New128a()
	var buf [8]byte
	for _, r := range s.Routes {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(r)))
		h.Write(buf[:])
		for _, idx := range r {
			binary.LittleEndian.PutUint64(buf[:], uint64(idx))
			h.Write(buf[:])
		}
	}
	for _, w := range s.Fulfilled.Bytes() {
		binary.LittleEndian.PutUint64(buf[:], w)
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.TotalCost))
	h.Write(buf[:])

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}
