package chromakey

// RendererOption configures a Renderer during creation.
//
// Example:
//
//	// Default strategy selection, default key color
//	r := chromakey.NewRenderer(src)
//
//	// Forced CPU path with a custom backdrop color
//	r := chromakey.NewRenderer(src,
//	    chromakey.WithCompositor(chromakey.NewPixelCompositor()),
//	    chromakey.WithKeyColor(chromakey.Hex("#00b140")))
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	compositor     Compositor
	controller     *Controller
	keyColor       RGBA
	neverReadyTick int
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		compositor:     nil, // NewCompositor() if nil
		controller:     nil, // NewController() if nil
		keyColor:       DefaultKeyColor,
		neverReadyTick: DefaultNeverReadyTicks,
	}
}

// WithCompositor sets a specific compositing strategy instead of the
// capability-checked default selection. The Renderer takes ownership and
// closes it on Close.
func WithCompositor(c Compositor) RendererOption {
	return func(o *rendererOptions) {
		o.compositor = c
	}
}

// WithController shares an existing parameter controller, e.g. one already
// wired to UI sliders. Without this option the Renderer creates its own.
func WithController(c *Controller) RendererOption {
	return func(o *rendererOptions) {
		o.controller = c
	}
}

// WithKeyColor sets the reference backdrop color. Defaults to pure green.
func WithKeyColor(c RGBA) RendererOption {
	return func(o *rendererOptions) {
		o.keyColor = c
	}
}

// WithNeverReadyTicks sets how many consecutive not-ready ticks are allowed
// before the renderer reports the source as never ready. Zero or negative
// disables the diagnostic.
func WithNeverReadyTicks(n int) RendererOption {
	return func(o *rendererOptions) {
		o.neverReadyTick = n
	}
}
