package vmath

import "math"

// Axis identifies which grid line a ray crossed
type Axis uint8

const (
	AxisNone Axis = iota // Origin cell, no boundary crossed yet
	AxisX                // Crossed a vertical grid line (x changed)
	AxisY                // Crossed a horizontal grid line (y changed)
)

// RayTraverser is a zero-allocation iterator for DDA grid traversal along an unbounded ray
// Cells are visited in order of entry; on exact ties the x step is taken first
type RayTraverser struct {
	cellX, cellY int
	stepX, stepY int

	// Ray parameter at the next vertical/horizontal boundary
	tMaxX, tMaxY float64
	// Ray parameter between successive boundaries on each axis
	tDeltaX, tDeltaY float64

	t    float64
	axis Axis
}

// NewRayTraverser starts at the cell containing origin
// With a unit dir the ray parameter equals Euclidean distance
func NewRayTraverser(origin, dir Vec2) RayTraverser {
	cx, cy := origin.Floor()
	r := RayTraverser{cellX: cx, cellY: cy}

	r.stepX, r.tMaxX, r.tDeltaX = axisSetup(origin.X, float64(cx), dir.X)
	r.stepY, r.tMaxY, r.tDeltaY = axisSetup(origin.Y, float64(cy), dir.Y)
	return r
}

func axisSetup(o, cell, d float64) (step int, tMax, tDelta float64) {
	switch {
	case d > 0:
		return 1, (cell + 1 - o) / d, 1 / d
	case d < 0:
		return -1, (o - cell) / -d, -1 / d
	}
	return 0, math.Inf(1), math.Inf(1)
}

// Next enters the next cell along the ray
func (r *RayTraverser) Next() {
	if r.tMaxX <= r.tMaxY {
		r.t = r.tMaxX
		r.cellX += r.stepX
		r.tMaxX += r.tDeltaX
		r.axis = AxisX
	} else {
		r.t = r.tMaxY
		r.cellY += r.stepY
		r.tMaxY += r.tDeltaY
		r.axis = AxisY
	}
}

// Cell returns the current grid coordinates
func (r *RayTraverser) Cell() (int, int) {
	return r.cellX, r.cellY
}

// Distance returns the ray parameter at which the current cell was entered
func (r *RayTraverser) Distance() float64 {
	return r.t
}

// Axis returns the boundary crossed to enter the current cell
func (r *RayTraverser) Axis() Axis {
	return r.axis
}

// Step returns the per-axis step direction, 0 for an axis-parallel component
func (r *RayTraverser) Step() (int, int) {
	return r.stepX, r.stepY
}
