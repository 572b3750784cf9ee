// Package raycast turns a pose on a worldmap into a column-per-cell text view.
//
// Cast walks one DDA ray per screen column and reports perpendicular wall
// distance and struck face; Renderer.Draw maps those columns to cells using
// a distance-keyed shade table and row-keyed floor and ceiling tables.
// Both are pure functions of their inputs.
package raycast
