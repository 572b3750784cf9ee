// Package worldmap holds the immutable 2D wall grid that sessions explore.
package worldmap

import (
	"errors"
	"fmt"
	"strings"
)

// Tile is a map cell: 0 is empty, 1..9 selects a wall material
type Tile uint8

const (
	Empty Tile = 0
	// MaxMaterial is the highest wall material index
	MaxMaterial Tile = 9
)

// IsWall reports whether the tile blocks rays and movement
func (t Tile) IsWall() bool { return t != Empty }

// Point is a grid cell coordinate
type Point struct {
	X, Y int
}

// Map is a read-only tile grid, safe to share between sessions
type Map struct {
	width  int
	height int
	tiles  []Tile
	start  Point
}

var (
	ErrEmptyMap  = errors.New("map has no cells")
	ErrBadTile   = errors.New("unknown map character")
	ErrNoSpace   = errors.New("map has no empty cell")
	ErrStartWall = errors.New("start position is inside a wall")
)

// New builds a map from row-major tiles; rows must share one width
// The start cell defaults to the first empty cell when start is nil
func New(rows [][]Tile, start *Point) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMap
	}
	m := &Map{width: len(rows[0]), height: len(rows)}
	m.tiles = make([]Tile, 0, m.width*m.height)
	for y, row := range rows {
		if len(row) != m.width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", y, len(row), m.width)
		}
		m.tiles = append(m.tiles, row...)
	}

	if start != nil {
		if !m.InBounds(start.X, start.Y) || m.At(start.X, start.Y).IsWall() {
			return nil, fmt.Errorf("%w: (%d,%d)", ErrStartWall, start.X, start.Y)
		}
		m.start = *start
		return m, nil
	}
	for i, t := range m.tiles {
		if !t.IsWall() {
			m.start = Point{i % m.width, i / m.width}
			return m, nil
		}
	}
	return nil, ErrNoSpace
}

// Parse reads a text map
// '#' and '1'..'9' are walls ('#' is material 1), '.', ' ' and '0' are empty, '@' marks an empty start cell
// Ragged rows are padded with empty cells; trailing blank lines are dropped
func Parse(lines []string) (*Map, error) {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	if width == 0 {
		return nil, ErrEmptyMap
	}

	var start *Point
	rows := make([][]Tile, len(lines))
	for y, l := range lines {
		row := make([]Tile, width)
		x := 0
		for _, ch := range l {
			switch {
			case ch == '#':
				row[x] = 1
			case ch >= '1' && ch <= '9':
				row[x] = Tile(ch - '0')
			case ch == '.' || ch == ' ' || ch == '0':
			case ch == '@':
				start = &Point{x, y}
			default:
				return nil, fmt.Errorf("%w %q at line %d column %d", ErrBadTile, ch, y+1, x+1)
			}
			x++
		}
		rows[y] = row
	}
	return New(rows, start)
}

// WithStart returns a copy of m starting at p; tiles are shared since maps are immutable
func (m *Map) WithStart(p Point) (*Map, error) {
	if !m.InBounds(p.X, p.Y) || m.At(p.X, p.Y).IsWall() {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrStartWall, p.X, p.Y)
	}
	c := *m
	c.start = p
	return &c, nil
}

// Width returns the number of columns
func (m *Map) Width() int { return m.width }

// Height returns the number of rows
func (m *Map) Height() int { return m.height }

// Start returns the spawn cell
func (m *Map) Start() Point { return m.start }

// InBounds reports whether (x, y) is on the map
func (m *Map) InBounds(x, y int) bool {
	return uint(x) < uint(m.width) && uint(y) < uint(m.height)
}

// At returns the tile at (x, y); cells outside the map are empty
func (m *Map) At(x, y int) Tile {
	if !m.InBounds(x, y) {
		return Empty
	}
	return m.tiles[y*m.width+x]
}

// IsWall reports whether (x, y) blocks rays and movement
func (m *Map) IsWall(x, y int) bool {
	return m.At(x, y).IsWall()
}

// String renders the map in Parse format
func (m *Map) String() string {
	var b strings.Builder
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.At(x, y)
			switch {
			case x == m.start.X && y == m.start.Y:
				b.WriteByte('@')
			case t == Empty:
				b.WriteByte('.')
			default:
				b.WriteByte('0' + byte(t))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// defaultLevel is the built-in 8x9 level
var defaultLevel = []string{
	"11223344",
	"30000004",
	"30005004",
	"42000005",
	"42000005",
	"50000006",
	"50010006",
	"70000007",
	"74422559",
}

// DefaultHeading is the built-in level's spawn heading in degrees
const DefaultHeading = 210.0

// Default returns the built-in level with its spawn at (3,2)
func Default() *Map {
	m, err := Parse(defaultLevel)
	if err != nil {
		panic("worldmap: built-in level: " + err.Error())
	}
	m.start = Point{3, 2}
	return m
}
