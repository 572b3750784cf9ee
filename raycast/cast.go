package raycast

import (
	"math"

	"github.com/lixenwraith/textray/vmath"
	"github.com/lixenwraith/textray/worldmap"
)

// Face is the side of a wall tile a ray struck
type Face uint8

const (
	FaceNone Face = iota
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest
)

func (f Face) String() string {
	switch f {
	case FaceNorth:
		return "N"
	case FaceSouth:
		return "S"
	case FaceEast:
		return "E"
	case FaceWest:
		return "W"
	}
	return "-"
}

// Column is the result of one ray
type Column struct {
	Distance float64 // Perpendicular distance, maxRange on a miss
	Face     Face
	Tile     worldmap.Tile
	Hit      bool
}

// Cast fills dst with n columns for the pose and returns it, reallocating when dst is short
// Column i looks along heading + (i/n - 0.5)*fov
func Cast(dst []Column, m *worldmap.Map, pose Pose, fov float64, n int, maxRange float64) []Column {
	if cap(dst) < n {
		dst = make([]Column, n)
	}
	dst = dst[:n]
	for i := range dst {
		offset := (float64(i)/float64(n) - 0.5) * fov
		dst[i] = CastRay(m, pose.Pos, pose.Heading+offset, offset, maxRange)
	}
	return dst
}

// CastRay walks one ray from origin; offset is the angle from the view axis used for fish-eye correction
// A non-finite or non-positive maxRange, angle or origin yields a miss without walking
func CastRay(m *worldmap.Map, origin vmath.Vec2, angle, offset, maxRange float64) Column {
	if !finite(maxRange) || maxRange <= 0 || !finite(angle) || !finite(origin.X) || !finite(origin.Y) {
		return Column{}
	}
	r := vmath.NewRayTraverser(origin, vmath.FromAngle(angle))
	for {
		r.Next()
		if r.Distance() > maxRange {
			return Column{Distance: maxRange}
		}
		x, y := r.Cell()
		tile := m.At(x, y)
		if !tile.IsWall() {
			continue
		}
		return Column{
			Distance: r.Distance() * math.Cos(offset),
			Face:     faceOf(&r),
			Tile:     tile,
			Hit:      true,
		}
	}
}

// faceOf names the wall side facing the ray: travelling +x strikes the west side
func faceOf(r *vmath.RayTraverser) Face {
	sx, sy := r.Step()
	switch r.Axis() {
	case vmath.AxisX:
		if sx > 0 {
			return FaceWest
		}
		return FaceEast
	case vmath.AxisY:
		if sy > 0 {
			return FaceNorth
		}
		return FaceSouth
	}
	return FaceNone
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
