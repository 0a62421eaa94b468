//go:build !nogpu

// Package gpu registers the GPU chroma-key accelerator for
// hardware-accelerated compositing.
//
// Import this package to key frames on the GPU via a wgpu/hal compute
// shader. If GPU initialization fails (no Vulkan available, no adapters),
// the registration is skipped with a warning and compositing falls back to
// the CPU pixel path with no change to the external contract.
//
// Usage:
//
//	import _ "github.com/gogpu/chromakey/gpu" // enable GPU compositing
package gpu

import (
	"github.com/gogpu/chromakey"
	gpuimpl "github.com/gogpu/chromakey/internal/gpu"
)

func init() {
	if err := chromakey.RegisterAccelerator(gpuimpl.NewKeyer()); err != nil {
		chromakey.Logger().Warn("GPU chroma keyer not available", "err", err)
	}
}
