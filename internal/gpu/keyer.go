//go:build !nogpu

// Package gpu implements the GPU chroma-key accelerator using wgpu/hal
// compute shaders.
package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/chromakey"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

//go:embed shaders/chroma_key.wgsl
var chromaKeyShaderSource string

// fenceTimeout bounds how long a frame dispatch may block the render loop.
// A healthy dispatch at call-video resolution completes in well under a
// display frame; anything near this limit is a stall worth surfacing.
const fenceTimeout = 2 * time.Second

// keyParams is the uniform block for the chroma-key shader. Field order and
// sizes must match struct Params in chroma_key.wgsl (32 bytes, vec2 aligned).
type keyParams struct {
	KeyU, KeyV float32
	Similarity float32
	Smoothness float32
	Spill      float32
	FlipY      uint32
	Width      uint32
	Height     uint32
}

// Keyer runs the chroma-key program on the GPU. It implements the
// chromakey.Accelerator interface.
//
// Each KeyFrame call uploads the frame to a storage buffer, dispatches one
// compute invocation per pixel, and reads the keyed pixels back. Buffers
// are persistent and only reallocated when the frame size changes, so the
// steady-state per-frame cost is two buffer writes, one dispatch, and one
// readback.
type Keyer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Per-size resources, recreated when the frame size changes.
	width, height int
	srcBuf        hal.Buffer
	dstBuf        hal.Buffer
	stagingBuf    hal.Buffer
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup

	packed   []byte // upload scratch
	readback []byte // download scratch

	ready bool
}

var _ chromakey.Accelerator = (*Keyer)(nil)

// NewKeyer creates an uninitialized GPU keyer. Init must succeed before
// KeyFrame is usable.
func NewKeyer() *Keyer { return &Keyer{} }

// Name returns the accelerator identifier.
func (k *Keyer) Name() string { return "wgpu-keyer" }

// SetLogger receives the logger propagated from chromakey.SetLogger.
func (k *Keyer) SetLogger(l *slog.Logger) { setLogger(l) }

// Init creates the GPU instance, device, and compute pipeline. Any failure
// is wrapped in chromakey.ErrGPUUnavailable; the caller then selects the
// CPU strategy and this keyer stays unregistered.
func (k *Keyer) Init() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ready {
		return nil
	}
	if err := k.initGPU(); err != nil {
		return fmt.Errorf("%w: %w", chromakey.ErrGPUUnavailable, err)
	}
	return nil
}

func (k *Keyer) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	k.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		k.instance = nil
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		k.instance = nil
		return fmt.Errorf("open device: %w", err)
	}
	k.device = openDev.Device
	k.queue = openDev.Queue

	if err := k.createPipeline(); err != nil {
		k.device.Destroy()
		k.device = nil
		k.queue = nil
		instance.Destroy()
		k.instance = nil
		return fmt.Errorf("create pipeline: %w", err)
	}

	k.ready = true
	slogger().Info("wgpu-keyer: GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (k *Keyer) createPipeline() error {
	shader, err := k.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "chroma_key",
		Source: hal.ShaderSource{WGSL: chromaKeyShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile chroma_key shader: %w", err)
	}
	k.shader = shader

	bindLayout, err := k.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "chroma_key_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	k.bindLayout = bindLayout

	pipeLayout, err := k.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "chroma_key_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{k.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	k.pipeLayout = pipeLayout

	pipeline, err := k.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "chroma_key_pipeline", Layout: k.pipeLayout,
		Compute: hal.ComputeState{Module: k.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	k.pipeline = pipeline
	return nil
}

// KeyFrame implements chromakey.Accelerator. src holds Width*Height RGBA
// pixels; the keyed result lands in target.Data in the same layout.
func (k *Keyer) KeyFrame(target chromakey.FrameTarget, src []uint8, key chromakey.UV, params chromakey.Parameters, flipY bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.ready {
		return chromakey.ErrFallbackToCPU
	}
	w, h := target.Width, target.Height
	if w <= 0 || h <= 0 {
		return fmt.Errorf("wgpu-keyer: invalid target size %dx%d", w, h)
	}
	if len(src) < w*h*4 || len(target.Data) < w*h*4 {
		return fmt.Errorf("wgpu-keyer: buffer too small for %dx%d frame", w, h)
	}

	if err := k.ensureBuffers(w, h); err != nil {
		return err
	}

	packPixels(src, k.packed, w*h)
	k.queue.WriteBuffer(k.srcBuf, 0, k.packed)
	k.queue.WriteBuffer(k.uniformBuf, 0, makeParams(key, params, w, h, flipY))

	if err := k.dispatch(w, h); err != nil {
		return err
	}

	unpackPixels(k.readback, target.Data, w*h)
	return nil
}

func (k *Keyer) dispatch(w, h int) error {
	encoder, err := k.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "chroma_key_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("chroma_key"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "chroma_key_pass"})
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, k.bindGroup, nil)
	pass.Dispatch((uint32(w)+7)/8, (uint32(h)+7)/8, 1) //nolint:gosec // dimensions always fit uint32
	pass.End()

	pixelBufSize := uint64(w * h * 4) //nolint:gosec // non-negative
	encoder.CopyBufferToBuffer(k.dstBuf, k.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer k.device.FreeCommandBuffer(cmdBuf)

	fence, err := k.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer k.device.DestroyFence(fence)
	if err := k.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := k.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	if err := k.queue.ReadBuffer(k.stagingBuf, 0, k.readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}

// ensureBuffers (re)creates the per-size GPU buffers and bind group when
// the frame size changes.
func (k *Keyer) ensureBuffers(w, h int) error {
	if w == k.width && h == k.height && k.bindGroup != nil {
		return nil
	}
	k.destroyBuffers()

	pixelBufSize := uint64(w * h * 4) //nolint:gosec // non-negative
	paramSize := uint64(unsafe.Sizeof(keyParams{}))

	srcBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_src", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create src buffer: %w", err)
	}
	k.srcBuf = srcBuf

	dstBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_dst", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		k.destroyBuffers()
		return fmt.Errorf("create dst buffer: %w", err)
	}
	k.dstBuf = dstBuf

	stagingBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		k.destroyBuffers()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	k.stagingBuf = stagingBuf

	uniformBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chroma_key_params", Size: paramSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		k.destroyBuffers()
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	k.uniformBuf = uniformBuf

	bindGroup, err := k.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "chroma_key_bind", Layout: k.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: paramSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		k.destroyBuffers()
		return fmt.Errorf("create bind group: %w", err)
	}
	k.bindGroup = bindGroup

	k.width, k.height = w, h
	n := w * h * 4
	k.packed = make([]byte, n)
	k.readback = make([]byte, n)
	slogger().Debug("wgpu-keyer: buffers allocated", "width", w, "height", h, "bytes", 3*n)
	return nil
}

func (k *Keyer) destroyBuffers() {
	if k.device == nil {
		return
	}
	if k.bindGroup != nil {
		k.device.DestroyBindGroup(k.bindGroup)
		k.bindGroup = nil
	}
	for _, buf := range []hal.Buffer{k.srcBuf, k.dstBuf, k.stagingBuf, k.uniformBuf} {
		if buf != nil {
			k.device.DestroyBuffer(buf)
		}
	}
	k.srcBuf, k.dstBuf, k.stagingBuf, k.uniformBuf = nil, nil, nil, nil
	k.width, k.height = 0, 0
}

func (k *Keyer) destroyPipeline() {
	if k.device == nil {
		return
	}
	if k.pipeline != nil {
		k.device.DestroyComputePipeline(k.pipeline)
		k.pipeline = nil
	}
	if k.pipeLayout != nil {
		k.device.DestroyPipelineLayout(k.pipeLayout)
		k.pipeLayout = nil
	}
	if k.bindLayout != nil {
		k.device.DestroyBindGroupLayout(k.bindLayout)
		k.bindLayout = nil
	}
	if k.shader != nil {
		k.device.DestroyShaderModule(k.shader)
		k.shader = nil
	}
}

// Close releases all GPU resources deterministically. Safe to call multiple
// times or on a keyer that never initialized.
func (k *Keyer) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.destroyBuffers()
	k.destroyPipeline()
	if k.device != nil {
		k.device.Destroy()
		k.device = nil
	}
	if k.instance != nil {
		k.instance.Destroy()
		k.instance = nil
	}
	k.queue = nil
	k.ready = false
}

// makeParams serializes the uniform block.
func makeParams(key chromakey.UV, p chromakey.Parameters, w, h int, flipY bool) []byte {
	var flip uint32
	if flipY {
		flip = 1
	}
	params := keyParams{
		KeyU: float32(key.U), KeyV: float32(key.V),
		Similarity: float32(p.Similarity),
		Smoothness: float32(p.Smoothness),
		Spill:      float32(p.Spill),
		FlipY:      flip,
		Width:      uint32(w), //nolint:gosec // dimensions always fit uint32
		Height:     uint32(h), //nolint:gosec // dimensions always fit uint32
	}
	return structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)) //nolint:gosec // safe struct access
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// packPixels converts RGBA bytes into the little-endian u32 words the
// shader indexes.
func packPixels(data []uint8, out []byte, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		srcIdx := i * 4
		r := uint32(data[srcIdx+0])
		g := uint32(data[srcIdx+1])
		b := uint32(data[srcIdx+2])
		a := uint32(data[srcIdx+3])
		packed := r | (g << 8) | (b << 16) | (a << 24)
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
}

// unpackPixels converts shader output words back into RGBA bytes.
func unpackPixels(packed []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		dstIdx := i * 4
		dst[dstIdx+0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
		dst[dstIdx+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
		dst[dstIdx+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
		dst[dstIdx+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
	}
}
