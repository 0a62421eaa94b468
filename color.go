package chromakey

import (
	"image/color"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	return RGBA{
		R: float64(r) / 65535,
		G: float64(g) / 65535,
		B: float64(b) / 65535,
		A: float64(a) / 65535,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA".
func Hex(hex string) RGBA {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint32
	a = 255

	switch len(hex) {
	case 3: // RGB
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4: // RGBA
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		parseHex(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6: // RRGGBB
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
	case 8: // RRGGBBAA
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
		parseHex(hex[6:8], &a)
	default:
		return RGBA{R: 0, G: 0, B: 0, A: 1}
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}
}

// parseHex is a helper for hex parsing
func parseHex(s string, val *uint32) {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		}
	}
}

func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	Transparent = RGBA{0, 0, 0, 0}
)

// DefaultKeyColor is the reference backdrop color: pure green.
// The key color is static per session; it describes the physical backdrop,
// not a tunable parameter.
var DefaultKeyColor = Green
