package opt

import (
	"errors"
	"fmt"
)

// ErrInvalidInstance is returned by NewInstance when the raw data is inconsistent.
var ErrInvalidInstance = errors.New("invalid instance")

// matrixLimit bounds the number of locations for which pairwise distances are cached.
const matrixLimit = 2001

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Request is a transport demand from a pickup to a dropoff location.
type Request struct {
	ID      int
	Demand  int
	Pickup  Location
	Dropoff Location
}

// RawInstance carries parsed instance fields before validation.
type RawInstance struct {
	Name           string  `json:"name"`
	NumVehicles    int     `json:"numberOfVehicles"`
	Capacity       int     `json:"vehicleCapacity"`
	MinFulfilled   int     `json:"minFulfilled"`
	FairnessWeight float64 `json:"fairnessWeight"`
	Depot          Point   `json:"depot"`
	Demands        []int   `json:"demands"`
	Pickups        []Point `json:"pickups"`
	Dropoffs       []Point `json:"dropoffs"`
}

// Instance is the immutable problem data. Pickups occupy indices 1..n,
// dropoffs n+1..2n and the depot index 0. Fields must not be modified after
// NewInstance returns.
type Instance struct {
	Name           string
	NumRequests    int
	NumVehicles    int
	Capacity       int
	MinFulfilled   int
	FairnessWeight float64
	Depot          Location
	Requests       []Request

	locations []Location
	demand    []int // signed load change per location index
	matrix    []int32
}

func NewInstance(raw RawInstance) (*Instance, error) {
	n := len(raw.Demands)
	switch {
	case raw.NumVehicles < 1:
		return nil, fmt.Errorf("%w: numberOfVehicles must be >= 1, got %d", ErrInvalidInstance, raw.NumVehicles)
	case raw.Capacity < 0:
		return nil, fmt.Errorf("%w: vehicleCapacity must be >= 0, got %d", ErrInvalidInstance, raw.Capacity)
	case len(raw.Pickups) != n || len(raw.Dropoffs) != n:
		return nil, fmt.Errorf("%w: %d demands, %d pickups, %d dropoffs", ErrInvalidInstance, n, len(raw.Pickups), len(raw.Dropoffs))
	case raw.MinFulfilled < 0 || raw.MinFulfilled > n:
		return nil, fmt.Errorf("%w: minNumberOfRequestsFulfilled %d outside [0, %d]", ErrInvalidInstance, raw.MinFulfilled, n)
	case raw.FairnessWeight < 0:
		return nil, fmt.Errorf("%w: fairnessWeight must be >= 0", ErrInvalidInstance)
	}

	inst := &Instance{
		Name:           raw.Name,
		NumRequests:    n,
		NumVehicles:    raw.NumVehicles,
		Capacity:       raw.Capacity,
		MinFulfilled:   raw.MinFulfilled,
		FairnessWeight: raw.FairnessWeight,
		Depot:          Location{X: raw.Depot.X, Y: raw.Depot.Y, Index: DepotIndex},
		Requests:       make([]Request, n),
		locations:      make([]Location, 2*n+1),
		demand:         make([]int, 2*n+1),
	}
	inst.locations[DepotIndex] = inst.Depot
	for i := 0; i < n; i++ {
		if raw.Demands[i] < 0 {
			return nil, fmt.Errorf("%w: request %d has negative demand %d", ErrInvalidInstance, i+1, raw.Demands[i])
		}
		id := i + 1
		p := Location{X: raw.Pickups[i].X, Y: raw.Pickups[i].Y, Index: id}
		d := Location{X: raw.Dropoffs[i].X, Y: raw.Dropoffs[i].Y, Index: id + n}
		inst.Requests[i] = Request{ID: id, Demand: raw.Demands[i], Pickup: p, Dropoff: d}
		inst.locations[p.Index] = p
		inst.locations[d.Index] = d
		inst.demand[p.Index] = raw.Demands[i]
		inst.demand[d.Index] = -raw.Demands[i]
	}

	if m := len(inst.locations); m <= matrixLimit {
		inst.matrix = make([]int32, m*m)
		for i := 0; i < m; i++ {
			for j := i + 1; j < m; j++ {
				d := int32(Distance(inst.locations[i], inst.locations[j]))
				inst.matrix[i*m+j] = d
				inst.matrix[j*m+i] = d
			}
		}
	}
	return inst, nil
}

func (inst *Instance) String() string {
	return fmt.Sprintf("%s: requests=%d vehicles=%d capacity=%d gamma=%d rho=%g depot=%v",
		inst.Name, inst.NumRequests, inst.NumVehicles, inst.Capacity, inst.MinFulfilled, inst.FairnessWeight, inst.Depot)
}

// Location returns the location stored at index idx.
func (inst *Instance) Location(idx int) Location { return inst.locations[idx] }

// NumLocations is 2n+1 including the depot.
func (inst *Instance) NumLocations() int { return len(inst.locations) }

// Dist is the distance between two location indices.
func (inst *Instance) Dist(a, b int) int {
	if inst.matrix != nil {
		return int(inst.matrix[a*len(inst.locations)+b])
	}
	return Distance(inst.locations[a], inst.locations[b])
}

func (inst *Instance) IsPickup(idx int) bool  { return idx >= 1 && idx <= inst.NumRequests }
func (inst *Instance) IsDropoff(idx int) bool { return idx > inst.NumRequests && idx <= 2*inst.NumRequests }

// RequestOf maps a pickup or dropoff index to its request id, or 0 for the depot.
func (inst *Instance) RequestOf(idx int) int {
	if idx > inst.NumRequests {
		return idx - inst.NumRequests
	}
	return idx
}

func (inst *Instance) PickupIndex(requestID int) int  { return requestID }
func (inst *Instance) DropoffIndex(requestID int) int { return requestID + inst.NumRequests }

// Request returns the request with the given id (1-based).
func (inst *Instance) Request(id int) Request { return inst.Requests[id-1] }

func (inst *Instance) validRequest(id int) bool { return id >= 1 && id <= inst.NumRequests }

// RouteLength sums hop distances from the depot through route and back.
func (inst *Instance) RouteLength(route []int) int {
	if len(route) == 0 {
		return 0
	}
	total := inst.Dist(DepotIndex, route[0])
	for i := 1; i < len(route); i++ {
		total += inst.Dist(route[i-1], route[i])
	}
	return total + inst.Dist(route[len(route)-1], DepotIndex)
}

// IsCapacityFeasible walks route and reports whether the load stays within [0, Capacity].
func (inst *Instance) IsCapacityFeasible(route []int) bool {
	load := 0
	for _, idx := range route {
		load += inst.demand[idx]
		if load < 0 || load > inst.Capacity {
			return false
		}
	}
	return true
}

// Fairness is the workload balance index over per-route lengths, padded to
// NumVehicles. It is 1.0 when every length is zero.
func (inst *Instance) Fairness(sums []int) float64 {
	var sum, sq float64
	for _, s := range sums {
		f := float64(s)
		sum += f
		sq += f * f
	}
	return fairness(sum, sq, inst.NumVehicles)
}

func fairness(sum, sumSquares float64, vehicles int) float64 {
	if sumSquares == 0 {
		return 1
	}
	return sum * sum / (float64(vehicles) * sumSquares)
}

func (inst *Instance) objectiveFromSums(sums []int) float64 {
	total := 0
	for _, s := range sums {
		total += s
	}
	return float64(total) + inst.FairnessWeight*(1-inst.Fairness(sums))
}

// ObjectiveOf recomputes the objective of routes from scratch.
func (inst *Instance) ObjectiveOf(routes [][]int) float64 {
	sums := make([]int, len(routes))
	for i, r := range routes {
		sums[i] = inst.RouteLength(r)
	}
	return inst.objectiveFromSums(sums)
}

// Objective recomputes the objective of s from its routes, ignoring cached values.
func (inst *Instance) Objective(s *Solution) float64 { return inst.ObjectiveOf(s.Routes) }
