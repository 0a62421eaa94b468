package chromakey

// Parameters holds the three tunable scalars of the keyer. Both compositor
// strategies interpret them identically, so a parameter change takes visual
// effect on the next frame regardless of which path is active.
//
// All three are defined on (0, 1):
//
//   - Similarity: chroma-distance threshold below which a pixel is background.
//   - Smoothness: width of the alpha falloff band above Similarity.
//   - Spill: width of the desaturation band that removes key-color casts
//     from retained foreground pixels.
//
// A Parameters value is immutable during a single frame's processing; it is
// passed explicitly into each compositing call rather than read from ambient
// state.
type Parameters struct {
	Similarity float64 `yaml:"similarity"`
	Smoothness float64 `yaml:"smoothness"`
	Spill      float64 `yaml:"spill"`
}

// MinSmoothness is the smallest Smoothness the keyer accepts. The falloff
// divides by Smoothness, so zero must never reach the math core.
const MinSmoothness = 0.001

// MinSpill is the smallest Spill the keyer accepts, for the same reason as
// MinSmoothness: the spill mask divides by Spill.
const MinSpill = 0.001

// DefaultParameters are the tuned defaults for a well-lit green backdrop.
func DefaultParameters() Parameters {
	return Parameters{Similarity: 0.4, Smoothness: 0.08, Spill: 0.15}
}

// Named presets. The keyer is a live-tuning tool; presets are starting
// points, not modes.
const (
	PresetDefault = "default"

	// PresetSharp biases toward crisp edges: a narrow falloff band with
	// aggressive spill removal. Suits flat, evenly lit backdrops.
	PresetSharp = "sharp"

	// PresetSoft biases toward wide, forgiving edges with gentle spill
	// removal. Suits uneven lighting and motion blur.
	PresetSoft = "soft"
)

var presets = map[string]Parameters{
	PresetDefault: {Similarity: 0.4, Smoothness: 0.08, Spill: 0.15},
	PresetSharp:   {Similarity: 0.42, Smoothness: 0.02, Spill: 0.3},
	PresetSoft:    {Similarity: 0.35, Smoothness: 0.2, Spill: 0.08},
}

// Preset returns the named preset parameters. The second return value
// reports whether the name is known.
func Preset(name string) (Parameters, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames returns the names of all built-in presets.
func PresetNames() []string {
	return []string{PresetDefault, PresetSharp, PresetSoft}
}

// Clamp returns p with every field forced into its valid domain. Out-of-range
// values are clamped rather than rejected: the keyer serves interactive
// tuning, where a hard failure on a slider value would be disruptive.
//
// Smoothness and Spill are floored at MinSmoothness and MinSpill to guard
// the divisions in the falloff math.
func (p Parameters) Clamp() Parameters {
	p.Similarity = clamp01(p.Similarity)
	p.Smoothness = clamp01(p.Smoothness)
	p.Spill = clamp01(p.Spill)
	if p.Smoothness < MinSmoothness {
		p.Smoothness = MinSmoothness
	}
	if p.Spill < MinSpill {
		p.Spill = MinSpill
	}
	return p
}

// Valid reports whether p is already within its domain, i.e. Clamp would
// return it unchanged.
func (p Parameters) Valid() bool {
	return p == p.Clamp()
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
