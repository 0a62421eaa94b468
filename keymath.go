package chromakey

import (
	"math"

	"github.com/gogpu/chromakey/internal/colorspace"
)

// UV is a point in the chroma plane. Key colors are converted once per
// session; pixels are converted per sample.
type UV struct {
	U, V float64
}

// KeyUV converts a key color to its chroma coordinates. Alpha is ignored.
func KeyUV(c RGBA) UV {
	u, v := colorspace.UV(c.R, c.G, c.B)
	return UV{U: u, V: v}
}

// falloffExponent biases both the alpha and spill falloff curves toward
// sharper separation near the background end while keeping a soft foreground
// edge. The value is empirically tuned; it is what avoids visible halos on
// hair and fabric edges.
const falloffExponent = 1.5

// KeyPixel is the mathematical core of the keyer: a pure mapping from one
// sampled pixel to its keyed output color and alpha. The GPU shader executes
// the identical computation per pixel in parallel; keeping this function
// pure lets the two paths cross-validate each other.
//
// For a pixel at chroma distance d from the key:
//
//	baseMask = d - Similarity
//	alpha    = clamp(baseMask / Smoothness, 0, 1) ^ 1.5
//
// so baseMask <= 0 is exactly transparent and baseMask >= Smoothness exactly
// opaque, with the exponent preserving both boundary values.
//
// Spill suppression blends the color toward its luma gray by the complement
// of spillMask = clamp(baseMask / Spill, 0, 1) ^ 1.5: pixels near the key
// chroma are desaturated hard (removing key-colored casts on the subject),
// pixels far from it are untouched. Saturation only ever decreases.
//
// Smoothness and Spill below their minimums are floored here as well, so a
// division by zero cannot occur even with unclamped parameters.
func KeyPixel(c RGBA, key UV, p Parameters) (RGBA, float64) {
	if p.Smoothness < MinSmoothness {
		p.Smoothness = MinSmoothness
	}
	if p.Spill < MinSpill {
		p.Spill = MinSpill
	}

	u, v := colorspace.UV(c.R, c.G, c.B)
	base := colorspace.Distance(u, v, key.U, key.V) - p.Similarity

	alpha := falloff(base / p.Smoothness)
	spillMask := falloff(base / p.Spill)

	gray := colorspace.Luma(c.R, c.G, c.B)
	out := RGBA{
		R: gray + (c.R-gray)*spillMask,
		G: gray + (c.G-gray)*spillMask,
		B: gray + (c.B-gray)*spillMask,
		A: alpha,
	}
	return out, alpha
}

// falloff clamps x to [0, 1] and applies the bias exponent. Exact 0 and 1
// are preserved.
func falloff(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return math.Pow(x, falloffExponent)
}
