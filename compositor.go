package chromakey

import (
	"errors"
	"fmt"
)

// ErrSourceNotReady is returned by a compositor when the frame source fails
// the readiness gate. Not a fault: an expected, frequent, recoverable
// per-tick condition. Callers skip the tick and keep the previous output.
var ErrSourceNotReady = errors.New("chromakey: source not ready")

// ErrFrameProcessing wraps per-frame compositing failures (e.g. a buffer
// upload error). Recoverable: skip the frame, keep the previous output.
var ErrFrameProcessing = errors.New("chromakey: frame processing failed")

// Compositor turns color-keyed source frames into frames with per-pixel
// alpha. Implementations must only sample the source when Ready(src) holds
// and must be deterministic for identical pixels and parameters.
//
// A Compositor is not safe for concurrent use; it belongs to a single
// display-driven render loop.
type Compositor interface {
	// Name returns the strategy name ("pixel" or the accelerator name).
	Name() string

	// Composite reads the current frame from src, keys it against key
	// with params, and writes the result into dst (resized as needed).
	// Returns ErrSourceNotReady when the gate fails; dst is untouched.
	Composite(src FrameSource, key RGBA, params Parameters, dst *Pixmap) error

	// Close releases any resources held by the strategy. Idempotent.
	Close()
}

// NewCompositor selects a compositing strategy: the registered GPU
// accelerator when one initialized successfully, otherwise the CPU pixel
// compositor. The choice is made once; it does not change mid-session.
// Selection is logged at info level.
func NewCompositor() Compositor {
	if a := RegisteredAccelerator(); a != nil {
		Logger().Info("chromakey: using GPU compositor", "accelerator", a.Name())
		return newShaderCompositor(a)
	}
	Logger().Info("chromakey: using CPU pixel compositor")
	return NewPixelCompositor()
}

// ShaderCompositor drives a GPU accelerator: per eligible tick it reads the
// source frame into a scratch buffer, dispatches the chroma-key program, and
// reads the keyed pixels back into the destination pixmap.
type ShaderCompositor struct {
	accel   Accelerator
	scratch *Pixmap

	// loggedFailures dedupes per-frame failure logs: a failure that
	// repeats every tick is logged once per distinct message, not 60
	// times a second.
	loggedFailures map[string]struct{}
}

var _ Compositor = (*ShaderCompositor)(nil)

func newShaderCompositor(a Accelerator) *ShaderCompositor {
	return &ShaderCompositor{
		accel:          a,
		scratch:        NewPixmap(0, 0),
		loggedFailures: make(map[string]struct{}),
	}
}

// Name returns the underlying accelerator's name.
func (c *ShaderCompositor) Name() string { return c.accel.Name() }

// Composite implements Compositor on the GPU path.
func (c *ShaderCompositor) Composite(src FrameSource, key RGBA, params Parameters, dst *Pixmap) error {
	if !Ready(src) {
		return ErrSourceNotReady
	}
	if err := src.ReadFrame(c.scratch); err != nil {
		return c.frameError(fmt.Errorf("read frame: %w", err))
	}

	w, h := c.scratch.Width(), c.scratch.Height()
	dst.Resize(w, h)
	target := FrameTarget{Data: dst.Data(), Width: w, Height: h, Stride: w * 4}

	err := c.accel.KeyFrame(target, c.scratch.Data(), KeyUV(key), params.Clamp(), sourceBottomUp(src))
	if err != nil {
		return c.frameError(fmt.Errorf("key frame: %w", err))
	}
	return nil
}

// frameError logs err once per distinct message and wraps it in
// ErrFrameProcessing. The compositor itself never panics or aborts; the
// caller keeps the previous frame on screen.
func (c *ShaderCompositor) frameError(err error) error {
	msg := err.Error()
	if _, seen := c.loggedFailures[msg]; !seen {
		c.loggedFailures[msg] = struct{}{}
		Logger().Warn("chromakey: frame skipped", "compositor", c.Name(), "err", err)
	}
	return fmt.Errorf("%w: %w", ErrFrameProcessing, err)
}

// Close releases the accelerator's GPU resources.
func (c *ShaderCompositor) Close() {
	c.accel.Close()
}
