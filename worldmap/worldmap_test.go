package worldmap

import (
	"errors"
	"testing"
)

func TestDefaultLevel(t *testing.T) {
	m := Default()
	if m.Width() != 8 || m.Height() != 9 {
		t.Fatalf("Expected 8x9, got %dx%d", m.Width(), m.Height())
	}
	if got := m.Start(); got != (Point{3, 2}) {
		t.Errorf("Expected start (3,2), got %+v", got)
	}
	if m.At(7, 8) != 9 {
		t.Errorf("Expected material 9 in corner, got %d", m.At(7, 8))
	}
	if !m.IsWall(4, 2) || m.IsWall(3, 2) {
		t.Error("Expected pillar at (4,2) and open start")
	}
}

func TestParse(t *testing.T) {
	m, err := Parse([]string{
		"####",
		"#@ 3",
		"#.",
		"",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Width() != 4 || m.Height() != 3 {
		t.Fatalf("Expected 4x3, got %dx%d", m.Width(), m.Height())
	}
	if m.Start() != (Point{1, 1}) {
		t.Errorf("Expected start (1,1), got %+v", m.Start())
	}
	if m.At(0, 0) != 1 || m.At(3, 1) != 3 {
		t.Errorf("Expected '#'=1 and '3'=3, got %d and %d", m.At(0, 0), m.At(3, 1))
	}
	// Ragged row padded with empty
	if m.IsWall(3, 2) {
		t.Error("Expected padding cell empty")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  error
	}{
		{"Empty", nil, ErrEmptyMap},
		{"Blank lines", []string{"", "  "}, ErrEmptyMap},
		{"Bad char", []string{"#x#"}, ErrBadTile},
		{"All walls", []string{"##", "##"}, ErrNoSpace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.lines)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewRejectsStartInWall(t *testing.T) {
	_, err := New([][]Tile{{1, 0}}, &Point{0, 0})
	if !errors.Is(err, ErrStartWall) {
		t.Errorf("Expected ErrStartWall, got %v", err)
	}
	_, err = New([][]Tile{{1, 0}}, &Point{5, 0})
	if !errors.Is(err, ErrStartWall) {
		t.Errorf("Expected ErrStartWall for out of bounds, got %v", err)
	}
}

func TestOutOfBoundsIsEmpty(t *testing.T) {
	m := Default()
	for _, p := range []Point{{-1, 0}, {0, -1}, {8, 0}, {0, 9}} {
		if m.IsWall(p.X, p.Y) {
			t.Errorf("Expected %+v empty", p)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	m := Default()
	lines := splitLines(m.String())
	m2, err := Parse(lines)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m2.String() != m.String() {
		t.Errorf("Expected identical maps:\n%s\n%s", m.String(), m2.String())
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := MazeConfig{Width: 21, Height: 15, Braiding: 0.5, Seed: 42}
	a, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, _ := Generate(cfg)
	if a.String() != b.String() {
		t.Error("Expected same seed to produce same maze")
	}
	if a.Width() != 21 || a.Height() != 15 {
		t.Errorf("Expected 21x15, got %dx%d", a.Width(), a.Height())
	}
}

func TestGenerateEnclosedAndConnected(t *testing.T) {
	m, err := Generate(MazeConfig{Width: 20, Height: 12, Seed: 7})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	w, h := m.Width(), m.Height()
	if w != 19 || h != 11 {
		t.Fatalf("Expected rounding to 19x11, got %dx%d", w, h)
	}
	for x := 0; x < w; x++ {
		if !m.IsWall(x, 0) || !m.IsWall(x, h-1) {
			t.Fatalf("Expected border wall at column %d", x)
		}
	}
	for y := 0; y < h; y++ {
		if !m.IsWall(0, y) || !m.IsWall(w-1, y) {
			t.Fatalf("Expected border wall at row %d", y)
		}
	}

	// Every odd lattice room is reachable from start
	seen := map[Point]bool{m.Start(): true}
	queue := []Point{m.Start()}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range []Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
			n := Point{p.X + d.X, p.Y + d.Y}
			if !seen[n] && m.InBounds(n.X, n.Y) && !m.IsWall(n.X, n.Y) {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	for y := 1; y < h-1; y += 2 {
		for x := 1; x < w-1; x += 2 {
			if !seen[Point{x, y}] {
				t.Errorf("Room (%d,%d) unreachable", x, y)
			}
		}
	}
}

func TestWithStart(t *testing.T) {
	m := Default()
	moved, err := m.WithStart(Point{1, 1})
	if err != nil {
		t.Fatalf("WithStart failed: %v", err)
	}
	if moved.Start() != (Point{1, 1}) {
		t.Errorf("Expected start (1,1), got %v", moved.Start())
	}
	if m.Start() != (Point{3, 2}) {
		t.Errorf("Original map start changed to %v", m.Start())
	}
	if _, err := m.WithStart(Point{0, 0}); !errors.Is(err, ErrStartWall) {
		t.Errorf("Expected ErrStartWall, got %v", err)
	}
}
