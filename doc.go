// Package chromakey provides a real-time chroma-key (green screen) compositor
// for live video frames.
//
// # Overview
//
// chromakey strips a solid-color backdrop from a continuously updating video
// frame source and produces frames with per-pixel alpha. Two interchangeable
// compositor strategies share a single mathematical core:
//
//   - Shader path: a wgpu compute pipeline evaluating the key per pixel in
//     parallel on the GPU. Primary, performance-critical path.
//   - Pixel path: a CPU classifier over raw frame bytes. Universal fallback
//     with hard (binary) edges.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/chromakey"
//	    _ "github.com/gogpu/chromakey/gpu" // enable GPU compositing
//	)
//
//	src := chromakey.NewImageSource(frame)
//	r := chromakey.NewRenderer(src)
//	defer r.Close()
//
//	for running {
//	    r.Tick()           // once per display refresh
//	    img := r.Snapshot() // straight-alpha RGBA
//	}
//
// # Architecture
//
// The library is organized into:
//   - Public API: FrameSource, Parameters, Controller, Compositor, Renderer
//   - Internal: colorspace (chroma plane math), gpu (wgpu compute pipeline),
//     parallel (row-striped worker pool for the CPU path)
//   - Opt-in: gpu/ registers the GPU keyer via blank import
//
// Without the blank import, or when no usable GPU adapter exists, every frame
// is composited on the CPU with no change to the external contract.
package chromakey
