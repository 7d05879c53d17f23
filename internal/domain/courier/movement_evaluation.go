package courier

import (
	"math"
	"math/rand"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// MovementEvaluator decides whether an idle courier wanders, and where to.
// A nil destination means the courier stays put.
type MovementEvaluator interface {
	NextDestination(rng *rand.Rand, current shared.Location) *shared.Location
}

// StillMovementEvaluator never moves the courier.
type StillMovementEvaluator struct{}

// NewStillMovementEvaluator creates the stay-put evaluator.
func NewStillMovementEvaluator() *StillMovementEvaluator {
	return &StillMovementEvaluator{}
}

func (*StillMovementEvaluator) NextDestination(*rand.Rand, shared.Location) *shared.Location {
	return nil
}

// DefaultNeighborCellSize is roughly a city block grid in decimal degrees.
const DefaultNeighborCellSize = 0.005

// NeighborsMovementEvaluator wanders to the center of a random adjacent cell
// of a fixed lat/lng grid.
type NeighborsMovementEvaluator struct {
	CellSize float64
}

// NewNeighborsMovementEvaluator creates the wandering evaluator.
func NewNeighborsMovementEvaluator(cellSize float64) *NeighborsMovementEvaluator {
	if cellSize <= 0 {
		cellSize = DefaultNeighborCellSize
	}
	return &NeighborsMovementEvaluator{CellSize: cellSize}
}

var neighborOffsets = [8][2]float64{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func (n *NeighborsMovementEvaluator) NextDestination(rng *rand.Rand, current shared.Location) *shared.Location {
	cellLat := math.Floor(current.Lat / n.CellSize)
	cellLng := math.Floor(current.Lng / n.CellSize)

	offset := neighborOffsets[rng.Intn(len(neighborOffsets))]
	destination := shared.Location{
		Lat: (cellLat + offset[0] + 0.5) * n.CellSize,
		Lng: (cellLng + offset[1] + 0.5) * n.CellSize,
	}
	return &destination
}
