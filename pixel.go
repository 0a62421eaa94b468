package chromakey

import (
	"fmt"

	"github.com/gogpu/chromakey/internal/parallel"
)

// PixelThresholds are the tuned constants of the CPU classifier's layered
// heuristic. They are empirically tuned defaults, not derived values;
// callers keying a nonstandard backdrop can adjust them.
//
// All values are on the 0–255 channel scale.
type PixelThresholds struct {
	// Range rule: background if r < MaxRed, g > MinGreen, b < MaxBlue.
	// Catches the pure key color under normal lighting.
	MaxRed   uint8
	MinGreen uint8
	MaxBlue  uint8

	// Dominance rule: background if g exceeds both r and b by more than
	// DominanceMargin. Catches desaturated and darker green.
	DominanceMargin uint8

	// Ratio rule: background if g > RatioFloor and g >= Ratio x r and
	// g >= Ratio x b. Catches edge-case greens the first two rules miss.
	RatioFloor uint8
	Ratio      float64
}

// DefaultPixelThresholds returns the tuned defaults for a green backdrop.
func DefaultPixelThresholds() PixelThresholds {
	return PixelThresholds{
		MaxRed:          120,
		MinGreen:        90,
		MaxBlue:         150,
		DominanceMargin: 15,
		RatioFloor:      70,
		Ratio:           1.5,
	}
}

// background classifies one pixel. A pixel matching any of the three rules
// is background. The rules are layered deliberately: a single hue formula
// misses the lighting variation a physical backdrop shows.
func (t PixelThresholds) background(r, g, b uint8) bool {
	// Range rule: pure key color.
	if r < t.MaxRed && g > t.MinGreen && b < t.MaxBlue {
		return true
	}
	// Dominance rule: desaturated or shadowed green.
	if int(g) > int(r)+int(t.DominanceMargin) && int(g) > int(b)+int(t.DominanceMargin) {
		return true
	}
	// Backup ratio rule.
	gf := float64(g)
	if g > t.RatioFloor && gf >= t.Ratio*float64(r) && gf >= t.Ratio*float64(b) {
		return true
	}
	return false
}

// PixelCompositor is the CPU fallback strategy: direct pixel inspection
// with binary (hard-edged) transparency. It exists for environments without
// a usable GPU; edge quality is the accepted tradeoff.
//
// Keying parameters do not alter the classification rules on this path —
// the rules are fixed-threshold heuristics — but the contract is shared
// with the shader path so the two strategies are interchangeable.
type PixelCompositor struct {
	thresholds PixelThresholds
	pool       *parallel.Pool
}

var _ Compositor = (*PixelCompositor)(nil)

// NewPixelCompositor creates a CPU compositor with default thresholds and
// one worker per CPU.
func NewPixelCompositor() *PixelCompositor {
	return &PixelCompositor{
		thresholds: DefaultPixelThresholds(),
		pool:       parallel.NewPool(0),
	}
}

// NewPixelCompositorWorkers creates a CPU compositor with an explicit worker
// count. Zero or negative means one worker per CPU.
func NewPixelCompositorWorkers(workers int) *PixelCompositor {
	return &PixelCompositor{
		thresholds: DefaultPixelThresholds(),
		pool:       parallel.NewPool(workers),
	}
}

// SetThresholds replaces the classification constants. Takes effect on the
// next frame.
func (c *PixelCompositor) SetThresholds(t PixelThresholds) {
	c.thresholds = t
}

// Name returns "pixel".
func (c *PixelCompositor) Name() string { return "pixel" }

// Composite implements Compositor by classifying every pixel of the current
// frame. Matching pixels get alpha 0; all others keep their original color
// at alpha 255. Rows are processed in parallel stripes; the call itself is
// synchronous and allocation-free at steady state.
func (c *PixelCompositor) Composite(src FrameSource, key RGBA, params Parameters, dst *Pixmap) error {
	if !Ready(src) {
		return ErrSourceNotReady
	}
	if err := src.ReadFrame(dst); err != nil {
		return fmt.Errorf("%w: read frame: %w", ErrFrameProcessing, err)
	}
	if sourceBottomUp(src) {
		dst.FlipRows()
	}

	th := c.thresholds
	data := dst.Data()
	stride := dst.Width() * 4

	c.pool.For(dst.Height(), func(lo, hi int) {
		for y := lo; y < hi; y++ {
			row := data[y*stride : (y+1)*stride]
			for x := 0; x < len(row); x += 4 {
				if th.background(row[x], row[x+1], row[x+2]) {
					row[x+3] = 0
				} else {
					row[x+3] = 255
				}
			}
		}
	})
	return nil
}

// Close stops the worker pool.
func (c *PixelCompositor) Close() {
	c.pool.Close()
}
