package chromakey

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the GPU accelerator cannot composite frames.
// The caller should transparently fall back to CPU compositing.
var ErrFallbackToCPU = errors.New("chromakey: falling back to CPU compositing")

// ErrGPUUnavailable indicates GPU context or pipeline creation failed at
// initialization. Recoverable: the pixel compositor serves instead.
var ErrGPUUnavailable = errors.New("chromakey: GPU unavailable")

// FrameTarget provides pixel buffer access for accelerator output.
// The Data slice must be in straight-alpha RGBA format, 4 bytes per pixel,
// laid out row by row top-down with the given Stride.
type FrameTarget struct {
	Data          []uint8
	Width, Height int
	Stride        int // bytes per row
}

// Accelerator is an optional GPU keying provider.
//
// When registered via RegisterAccelerator, compositor selection tries the
// GPU first. If Init fails the accelerator is not registered and selection
// falls back to the CPU pixel compositor; if a per-frame KeyFrame call
// fails, the frame is skipped and the previous output retained.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/chromakey/gpu" // enables GPU compositing
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-keyer").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// KeyFrame runs the chroma-key program over src (raw RGBA frame bytes,
	// Width*Height*4, top-down unless flipY is set) and writes keyed pixels
	// into target. Returns ErrFallbackToCPU if the frame cannot be
	// GPU-composited.
	KeyFrame(target FrameTarget, src []uint8, key UV, params Parameters, flipY bool) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers a GPU accelerator for optional GPU keying.
//
// Only one accelerator can be registered; subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration. If Init() fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via blank import in GPU backend packages:
//
//	func init() {
//	    chromakey.RegisterAccelerator(gpu.NewKeyer())
//	}
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("chromakey: accelerator must not be nil")
	}
	propagateLogger(a, Logger())
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredAccelerator returns the currently registered GPU accelerator,
// or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
