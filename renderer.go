package chromakey

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// DefaultNeverReadyTicks is how many consecutive failed readiness checks
// the renderer tolerates before diagnosing the source as never ready.
// At a 60 Hz display this is five seconds.
const DefaultNeverReadyTicks = 300

// Renderer is the display-driven front of the compositor: the host's
// animation loop calls Tick once per display refresh, and the renderer
// keeps the most recent composited frame available for display.
//
// Scheduling is single-threaded by design. A tick either produces a new
// frame or skips (source not ready, frame processing failure) leaving the
// previous frame in place; nothing is queued, buffered, or retried.
//
// Renderer is not safe for concurrent use, with one exception: the
// parameter controller may be written from another goroutine (UI input)
// at any time.
type Renderer struct {
	src        FrameSource
	compositor Compositor
	controller *Controller
	keyColor   RGBA

	// front is the displayed frame, back the in-progress one. On a
	// successful tick they swap, so a failed tick never tears the
	// displayed frame.
	front *Pixmap
	back  *Pixmap

	hasFrame bool
	closed   bool

	notReadyTicks  int
	neverReadyTick int
	neverReady     bool
}

// NewRenderer creates a renderer for the given source. Without options the
// compositing strategy is selected by NewCompositor and the key color is
// pure green.
func NewRenderer(src FrameSource, opts ...RendererOption) *Renderer {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.compositor == nil {
		o.compositor = NewCompositor()
	}
	if o.controller == nil {
		o.controller = NewController()
	}
	return &Renderer{
		src:            src,
		compositor:     o.compositor,
		controller:     o.controller,
		keyColor:       o.keyColor,
		front:          NewPixmap(0, 0),
		back:           NewPixmap(0, 0),
		neverReadyTick: o.neverReadyTick,
	}
}

// Controller returns the parameter controller. Safe to use from a UI
// goroutine while the render loop is ticking.
func (r *Renderer) Controller() *Controller { return r.controller }

// CompositorName returns the active strategy's name.
func (r *Renderer) CompositorName() string { return r.compositor.Name() }

// Tick runs one display tick: readiness gate, composite, frame swap.
// It reports whether a new frame was produced.
//
// All per-tick failures are handled here, per the subsystem's propagation
// policy: a not-ready source skips silently, a frame processing failure
// skips and keeps the previous frame (the compositor logs it once per
// distinct failure). Nothing escapes to the host loop.
func (r *Renderer) Tick() bool {
	if r.closed {
		return false
	}

	if !Ready(r.src) {
		r.noteNotReady()
		return false
	}
	r.noteReady()

	err := r.compositor.Composite(r.src, r.keyColor, r.controller.Get(), r.back)
	if err != nil {
		// ErrSourceNotReady can race in between our gate check and the
		// compositor's own; treat it as the skip it is.
		if !errors.Is(err, ErrSourceNotReady) && !errors.Is(err, ErrFrameProcessing) {
			Logger().Warn("chromakey: unexpected compositing error", "err", err)
		}
		return false
	}

	r.front, r.back = r.back, r.front
	r.hasFrame = true
	return true
}

func (r *Renderer) noteNotReady() {
	if r.neverReadyTick <= 0 || r.hasFrame {
		return
	}
	r.notReadyTicks++
	if r.notReadyTicks >= r.neverReadyTick && !r.neverReady {
		r.neverReady = true
		Logger().Warn("chromakey: source never became ready",
			"ticks", r.notReadyTicks,
			"width", r.src.VideoWidth(),
			"height", r.src.VideoHeight(),
			"readyState", r.src.ReadyState().String(),
			"ended", r.src.Ended())
	}
}

func (r *Renderer) noteReady() {
	r.notReadyTicks = 0
	r.neverReady = false
}

// SourceNeverReady reports the diagnostic state set when the source failed
// the readiness gate for the configured number of consecutive ticks before
// ever producing a frame. It clears itself if the source recovers.
func (r *Renderer) SourceNeverReady() bool { return r.neverReady }

// Frame returns the most recent composited frame, or nil if no frame has
// been produced yet. The pixmap is owned by the renderer and valid until
// the next Tick.
func (r *Renderer) Frame() *Pixmap {
	if !r.hasFrame {
		return nil
	}
	return r.front
}

// Snapshot returns a copy of the most recent composited frame as a
// straight-alpha image, or nil if no frame has been produced yet.
func (r *Renderer) Snapshot() *image.NRGBA {
	if !r.hasFrame {
		return nil
	}
	return r.front.ToImage()
}

// SnapshotScaled returns the most recent composited frame scaled to the
// given size with bilinear filtering, or nil if no frame has been produced
// yet. This is the hand-off point for hosts whose display surface differs
// from the video resolution.
func (r *Renderer) SnapshotScaled(width, height int) *image.NRGBA {
	if !r.hasFrame || width <= 0 || height <= 0 {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), r.front.ToImage(), r.front.Bounds(), draw.Over, nil)
	return dst
}

// Close releases the compositor's resources. The renderer must not be
// ticked afterwards; teardown is "stop being called" plus this release.
// Close is idempotent.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.compositor.Close()
}
