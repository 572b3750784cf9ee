package raycast

import (
	"math"

	"github.com/lixenwraith/textray/vmath"
	"github.com/lixenwraith/textray/worldmap"
)

// Radius keeps the viewpoint this far from wall faces
const Radius = 0.15

// Pose is a viewpoint: position in map units and heading in radians (y-down, 0 faces +x)
type Pose struct {
	Pos     vmath.Vec2
	Heading float64
}

// NewPose places a viewpoint at the centre of a cell
func NewPose(cell worldmap.Point, headingDeg float64) Pose {
	return Pose{
		Pos:     vmath.Vec2{X: float64(cell.X) + 0.5, Y: float64(cell.Y) + 0.5},
		Heading: vmath.NormalizeAngle(vmath.Radians(headingDeg)),
	}
}

// Dir returns the unit view direction
func (p Pose) Dir() vmath.Vec2 {
	return vmath.FromAngle(p.Heading)
}

// Turn rotates the heading by delta radians, positive turns right
func (p *Pose) Turn(delta float64) {
	p.Heading = vmath.NormalizeAngle(p.Heading + delta)
}

// Move steps along angle, testing each axis separately so the viewpoint slides along walls
// Returns false when neither axis could move
func (p *Pose) Move(m *worldmap.Map, angle, step float64) bool {
	d := vmath.FromAngle(angle).Scale(step)
	moved := false

	if nx := p.Pos.X + d.X; math.Abs(d.X) > vmath.Epsilon && !blocked(m, nx+math.Copysign(Radius, d.X), p.Pos.Y) {
		p.Pos.X = nx
		moved = true
	}
	if ny := p.Pos.Y + d.Y; math.Abs(d.Y) > vmath.Epsilon && !blocked(m, p.Pos.X, ny+math.Copysign(Radius, d.Y)) {
		p.Pos.Y = ny
		moved = true
	}
	return moved
}

func blocked(m *worldmap.Map, x, y float64) bool {
	return m.IsWall(int(math.Floor(x)), int(math.Floor(y)))
}
