package opt

import (
	"fmt"
	"math"
)

// DepotIndex is the location index reserved for the depot.
const DepotIndex = 0

// Location is a point in the plane with its stable index in the instance.
type Location struct {
	X, Y  int
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("(index: %d, coords: (%d, %d))", l.Index, l.X, l.Y)
}

// Distance returns the ceiling of the Euclidean distance between a and b.
func Distance(a, b Location) int {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return int(math.Ceil(math.Sqrt(dx*dx + dy*dy)))
}
