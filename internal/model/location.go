package model

import "math"

// Position is a point in world space.
// Value type, passed by value (immutable).
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// NewPosition creates a Position with the given coordinates.
func NewPosition(x, y, z float32) Position {
	return Position{X: x, Y: y, Z: z}
}

// DistanceSquared returns the squared distance to another point (no sqrt).
func (p Position) DistanceSquared(other Position) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	dz := float64(p.Z - other.Z)
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the euclidean distance to another point.
func (p Position) Distance(other Position) float64 {
	return math.Sqrt(p.DistanceSquared(other))
}
