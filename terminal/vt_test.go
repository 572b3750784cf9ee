package terminal

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"
)

// vtModel replays renderer output into a cell grid
// Supports CUP, ED 2, SGR (0/1/2/4/7, 38;2 and 48;2) and private modes (ignored)
type vtModel struct {
	w, h   int
	cells  []Cell
	cx, cy int
	pen    Cell
}

func newVT(w, h int) *vtModel {
	vt := &vtModel{w: w, h: h, cells: make([]Cell, w*h)}
	for i := range vt.cells {
		vt.cells[i] = Cell{Rune: '~'}
	}
	return vt
}

func (vt *vtModel) feed(t *testing.T, data []byte) {
	t.Helper()
	for len(data) > 0 {
		if data[0] == 0x1b {
			if len(data) < 2 || data[1] != '[' {
				t.Fatalf("unexpected escape %q", data)
			}
			end := 2
			for end < len(data) && (data[end] < 0x40 || data[end] > 0x7e) {
				end++
			}
			if end >= len(data) {
				t.Fatalf("unterminated CSI %q", data)
			}
			vt.csi(t, string(data[2:end]), data[end])
			data = data[end+1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if vt.cx < vt.w && vt.cy < vt.h {
			c := vt.pen
			c.Rune = r
			vt.cells[vt.cy*vt.w+vt.cx] = c
		}
		vt.cx++
	}
}

func (vt *vtModel) csi(t *testing.T, params string, final byte) {
	t.Helper()
	if strings.HasPrefix(params, "?") {
		return
	}
	var nums []int
	if params != "" {
		for _, p := range strings.Split(params, ";") {
			n, err := strconv.Atoi(p)
			if err != nil {
				t.Fatalf("bad CSI parameter %q", params)
			}
			nums = append(nums, n)
		}
	}
	switch final {
	case 'H':
		row, col := 1, 1
		if len(nums) > 0 {
			row = nums[0]
		}
		if len(nums) > 1 {
			col = nums[1]
		}
		vt.cy, vt.cx = row-1, col-1
	case 'J':
		for i := range vt.cells {
			vt.cells[i] = Cell{Rune: ' ', Fg: vt.pen.Fg, Bg: vt.pen.Bg}
		}
	case 'm':
		if len(nums) == 0 {
			nums = []int{0}
		}
		for i := 0; i < len(nums); i++ {
			switch n := nums[i]; {
			case n == 0:
				vt.pen = Cell{}
			case n == 1:
				vt.pen.Attrs |= AttrBold
			case n == 2:
				vt.pen.Attrs |= AttrDim
			case n == 4:
				vt.pen.Attrs |= AttrUnderline
			case n == 7:
				vt.pen.Attrs |= AttrReverse
			case (n == 38 || n == 48) && i+4 < len(nums) && nums[i+1] == 2:
				c := RGB{uint8(nums[i+2]), uint8(nums[i+3]), uint8(nums[i+4])}
				if n == 38 {
					vt.pen.Fg = c
				} else {
					vt.pen.Bg = c
				}
				i += 4
			default:
				t.Fatalf("unsupported SGR parameter %d in %q", n, params)
			}
		}
	default:
		t.Fatalf("unsupported CSI final %q", final)
	}
}

func (vt *vtModel) at(x, y int) Cell {
	return vt.cells[y*vt.w+x]
}

// assertMatches compares the replayed grid against g cell by cell
func (vt *vtModel) assertMatches(t *testing.T, g *Grid) {
	t.Helper()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			want, _ := g.Get(x, y)
			if got := vt.at(x, y); got != want {
				t.Fatalf("cell (%d,%d): expected %+v, got %+v", x, y, want, got)
			}
		}
	}
}
