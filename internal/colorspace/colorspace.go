// Package colorspace provides the chroma-plane math shared by the CPU and
// GPU keying paths.
//
// Keying decisions are made in a luma-independent U/V chroma plane rather
// than in RGB: chroma distance is far more robust to lighting and shadow
// variation on a physical backdrop than raw RGB Euclidean distance, because
// a shadowed patch of green backdrop keeps its chroma while losing luma.
package colorspace

import "math"

// UV converts an RGB color (components in [0, 1]) to its BT.601 chroma
// coordinates, offset into [0, 1]. The offset cancels in distance
// computations; it is kept so CPU values match the GPU shader bit for bit.
func UV(r, g, b float64) (u, v float64) {
	u = r*-0.169 + g*-0.331 + b*0.5 + 0.5
	v = r*0.5 + g*-0.419 + b*-0.081 + 0.5
	return u, v
}

// Distance returns the Euclidean distance between two chroma coordinates.
func Distance(u1, v1, u2, v2 float64) float64 {
	return math.Hypot(u1-u2, v1-v2)
}

// Luma returns the Rec. 709 luma of an RGB color, clamped to [0, 1].
// Spill suppression desaturates toward this gray value.
func Luma(r, g, b float64) float64 {
	y := r*0.2126 + g*0.7152 + b*0.0722
	if y < 0 {
		return 0
	}
	if y > 1 {
		return 1
	}
	return y
}

// Saturation returns a simple max-minus-min saturation measure in [0, 1].
// Used to verify that spill suppression only ever desaturates.
func Saturation(r, g, b float64) float64 {
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	return max - min
}
