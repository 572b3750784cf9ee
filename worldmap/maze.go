package worldmap

import (
	"math/rand"
	"time"
)

// MazeConfig controls Generate
type MazeConfig struct {
	Width, Height int

	// Braiding: 0.0 (perfect maze) to 1.0 (no dead ends)
	// Higher values add cycles; the no-plaza and no-pillar rules take precedence
	Braiding float64

	// Materials is the number of wall materials to cycle through, 1..9 (0 = all)
	Materials int

	Start *Point // Optional (nil = (1,1))
	Seed  int64  // Optional (0 = random)
}

// Generate carves a recursive-backtracker maze enclosed by walls
// Sizes are rounded down to odd values, minimum 5
func Generate(cfg MazeConfig) (*Map, error) {
	rows := ensureOdd(cfg.Height)
	cols := ensureOdd(cfg.Width)

	// Passage=false, start fully walled
	wall := make([][]bool, rows)
	for i := range wall {
		wall[i] = make([]bool, cols)
		for j := range wall[i] {
			wall[i][j] = true
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	start := Point{1, 1}
	if cfg.Start != nil {
		// Carving runs on odd lattice cells
		start = Point{clampOdd(cfg.Start.X, cols), clampOdd(cfg.Start.Y, rows)}
	}

	recursiveBacktracker(wall, start, rng)
	if cfg.Braiding > 0 {
		applySmartBraiding(wall, cfg.Braiding, rng)
	}

	materials := cfg.Materials
	if materials <= 0 || materials > int(MaxMaterial) {
		materials = int(MaxMaterial)
	}

	tiles := make([][]Tile, rows)
	for y := range tiles {
		tiles[y] = make([]Tile, cols)
		for x := range tiles[y] {
			if wall[y][x] {
				// Material varies in bands so long corridors show texture
				tiles[y][x] = Tile(1 + ((x/2+y/2)%materials))
			}
		}
	}
	return New(tiles, &start)
}

func recursiveBacktracker(grid [][]bool, start Point, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])

	stack := []Point{start}
	grid[start.Y][start.X] = false

	dirs := []Point{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}
	candidates := make([]Point, 0, 4)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		candidates = candidates[:0]

		for _, d := range dirs {
			nx, ny := curr.X+d.X, curr.Y+d.Y
			// Leave 1 cell border for walls
			if nx > 0 && nx < cols-1 && ny > 0 && ny < rows-1 && grid[ny][nx] {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.Intn(len(candidates))]
		grid[curr.Y+d.Y/2][curr.X+d.X/2] = false
		next := Point{curr.X + d.X, curr.Y + d.Y}
		grid[next.Y][next.X] = false
		stack = append(stack, next)
	}
}

func applySmartBraiding(grid [][]bool, probability float64, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])
	checkDirs := []Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	jumpDirs := []Point{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}

	// Odd lattice cells are rooms
	for y := 1; y < rows-1; y += 2 {
		for x := 1; x < cols-1; x += 2 {
			if grid[y][x] {
				continue
			}

			// Dead end: exactly one open neighbor
			exits := 0
			for _, d := range checkDirs {
				if !grid[y+d.Y][x+d.X] {
					exits++
				}
			}
			if exits != 1 || rng.Float64() >= probability {
				continue
			}

			candidates := make([]Point, 0, 4)
			for _, jd := range jumpDirs {
				nx, ny := x+jd.X, y+jd.Y
				wx, wy := x+jd.X/2, y+jd.Y/2
				if nx <= 0 || nx >= cols-1 || ny <= 0 || ny >= rows-1 {
					continue
				}
				if !grid[ny][nx] && grid[wy][wx] && canSafelyRemoveWall(grid, wx, wy) {
					candidates = append(candidates, Point{wx, wy})
				}
			}

			if len(candidates) > 0 {
				c := candidates[rng.Intn(len(candidates))]
				grid[c.Y][c.X] = false
			}
		}
	}
}

// canSafelyRemoveWall rejects removals that open a 2x2 plaza or leave an isolated pillar
func canSafelyRemoveWall(grid [][]bool, x, y int) bool {
	rows, cols := len(grid), len(grid[0])

	// Out of bounds counts as wall
	open := func(tx, ty int) bool {
		if tx < 0 || tx >= cols || ty < 0 || ty >= rows {
			return false
		}
		return !grid[ty][tx]
	}

	// Plazas: each 2x2 quadrant containing (x,y)
	if open(x-1, y-1) && open(x, y-1) && open(x-1, y) {
		return false
	}
	if open(x, y-1) && open(x+1, y-1) && open(x+1, y) {
		return false
	}
	if open(x-1, y) && open(x-1, y+1) && open(x, y+1) {
		return false
	}
	if open(x+1, y) && open(x, y+1) && open(x+1, y+1) {
		return false
	}

	// Pillars: an adjacent wall must keep another wall neighbor
	ortho := []Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	for _, d := range ortho {
		nx, ny := x+d.X, y+d.Y
		if open(nx, ny) || nx < 0 || nx >= cols || ny < 0 || ny >= rows {
			continue
		}
		connections := 0
		for _, d2 := range ortho {
			nnx, nny := nx+d2.X, ny+d2.Y
			if nnx == x && nny == y {
				continue
			}
			if nnx >= 0 && nnx < cols && nny >= 0 && nny < rows && grid[nny][nnx] {
				connections++
			}
		}
		if connections == 0 {
			return false
		}
	}
	return true
}

func ensureOdd(n int) int {
	if n < 5 {
		return 5
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}

// clampOdd maps v into the odd interior range [1, size-2]
func clampOdd(v, size int) int {
	v = min(max(v, 1), size-2)
	if v%2 == 0 {
		v--
	}
	return v
}
