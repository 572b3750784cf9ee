package terminal

import (
	"fmt"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
	ColorMode16                         // ANSI 8 + bright
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeTrueColor:
		return "truecolor"
	case ColorMode16:
		return "16"
	default:
		return "256"
	}
}

// ParseColorMode resolves a config/flag value, "auto" and "" return ok=false
func ParseColorMode(s string) (ColorMode, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorMode256, false, nil
	case "256":
		return ColorMode256, true, nil
	case "truecolor", "true", "24bit":
		return ColorModeTrueColor, true, nil
	case "16", "ansi":
		return ColorMode16, true, nil
	}
	return ColorMode256, false, fmt.Errorf("unknown color mode %q", s)
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
)

// Scale multiplies each channel by f, clamped to [0, 255]
func (c RGB) Scale(f float64) RGB {
	return RGB{scaleChannel(c.R, f), scaleChannel(c.G, f), scaleChannel(c.B, f)}
}

func scaleChannel(v uint8, f float64) uint8 {
	x := float64(v) * f
	if x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x + 0.5)
}

// Color cube values for 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// cubeLevel maps 0-255 to nearest cube index 0-5
func cubeLevel(v uint8) int {
	best := 0
	bestDist := abs(int(v) - int(cubeValues[0]))
	for j := 1; j < 6; j++ {
		if d := abs(int(v) - int(cubeValues[j])); d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}

// RGBTo256 finds the nearest 256-color palette index for an RGB value
func RGBTo256(c RGB) uint8 {
	r, g, b := cubeLevel(c.R), cubeLevel(c.G), cubeLevel(c.B)
	cubeIdx := uint8(16 + 36*r + 6*g + b)
	cubeDist := abs(int(c.R)-int(cubeValues[r])) +
		abs(int(c.G)-int(cubeValues[g])) +
		abs(int(c.B)-int(cubeValues[b]))

	// Grayscale ramp 232-255 maps to luminance 8, 18, ..., 238
	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	if gray < 4 || gray > 243 {
		return cubeIdx
	}
	step := min((gray-3)/10, 23)
	level := 8 + step*10
	grayDist := abs(int(c.R)-level) + abs(int(c.G)-level) + abs(int(c.B)-level)
	if grayDist < cubeDist {
		return uint8(232 + step)
	}
	return cubeIdx
}

// ansi16 is the xterm default rendition of the 16 base colors
var ansi16 = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// RGBTo16 returns the nearest base color index 0-15 by squared distance
func RGBTo16(c RGB) uint8 {
	best := 0
	bestDist := 1 << 30
	for i, p := range ansi16 {
		dr := int(c.R) - int(p.R)
		dg := int(c.G) - int(p.G)
		db := int(c.B) - int(p.B)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}
