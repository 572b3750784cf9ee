// Package vmath provides float 2D vector, angle and grid traversal helpers.
// World coordinates are y-down: heading 0 faces +x, heading π/2 faces +y.
package vmath

import "math"

// Epsilon is the tolerance for float comparisons
const Epsilon = 1e-9

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Lerp performs linear interpolation between a and b
// t in [0, 1] where 0 returns a, 1 returns b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// NearlyEqual reports |a-b| <= tol
func NearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
