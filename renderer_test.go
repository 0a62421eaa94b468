package chromakey

import (
	"errors"
	"testing"
)

func greenWhiteFrame(w, h int) *Pixmap {
	pm := NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				pm.SetPixel(x, y, Green)
			} else {
				pm.SetPixel(x, y, White)
			}
		}
	}
	return pm
}

func TestRenderer_TickGate(t *testing.T) {
	src := &stubSource{width: 4, height: 4, readyState: HaveMetadata, frame: greenWhiteFrame(4, 4)}
	r := NewRenderer(src, WithCompositor(NewPixelCompositor()))
	defer r.Close()

	if r.Tick() {
		t.Error("tick produced a frame from a not-ready source")
	}
	if r.Frame() != nil {
		t.Error("Frame() should be nil before the first composited frame")
	}
	if src.reads != 0 {
		t.Errorf("source read %d times before ready", src.reads)
	}

	src.readyState = HaveCurrentData
	if !r.Tick() {
		t.Fatal("tick should produce a frame once the source is ready")
	}
	f := r.Frame()
	if f == nil {
		t.Fatal("Frame() nil after a successful tick")
	}
	if f.Alpha(0, 0) != 0 || f.Alpha(3, 0) != 255 {
		t.Errorf("frame alpha = (%d, %d), want (0, 255)", f.Alpha(0, 0), f.Alpha(3, 0))
	}
}

func TestRenderer_NeverReadyDiagnostic(t *testing.T) {
	src := &stubSource{width: 4, height: 4, readyState: HaveNothing, frame: greenWhiteFrame(4, 4)}
	r := NewRenderer(src,
		WithCompositor(NewPixelCompositor()),
		WithNeverReadyTicks(10))
	defer r.Close()

	for i := 0; i < 9; i++ {
		r.Tick()
	}
	if r.SourceNeverReady() {
		t.Error("diagnostic fired before the configured tick count")
	}
	r.Tick()
	if !r.SourceNeverReady() {
		t.Error("diagnostic should fire after the configured tick count")
	}

	// Recovery clears the diagnostic.
	src.readyState = HaveCurrentData
	if !r.Tick() {
		t.Fatal("tick should succeed after the source recovers")
	}
	if r.SourceNeverReady() {
		t.Error("diagnostic should clear once the source produces a frame")
	}
}

func TestRenderer_NeverReadyNotCountedAfterFirstFrame(t *testing.T) {
	src := &stubSource{width: 4, height: 4, readyState: HaveCurrentData, frame: greenWhiteFrame(4, 4)}
	r := NewRenderer(src,
		WithCompositor(NewPixelCompositor()),
		WithNeverReadyTicks(3))
	defer r.Close()

	if !r.Tick() {
		t.Fatal("first tick should produce a frame")
	}

	// A mid-session stall is a normal skip, not a never-ready source.
	src.readyState = HaveMetadata
	for i := 0; i < 20; i++ {
		r.Tick()
	}
	if r.SourceNeverReady() {
		t.Error("diagnostic must not fire after a frame has been produced")
	}
}

func TestRenderer_KeepsPreviousFrameOnFailure(t *testing.T) {
	src := &stubSource{width: 4, height: 4, readyState: HaveCurrentData, frame: greenWhiteFrame(4, 4)}
	r := NewRenderer(src, WithCompositor(NewPixelCompositor()))
	defer r.Close()

	if !r.Tick() {
		t.Fatal("first tick should produce a frame")
	}
	want := append([]uint8(nil), r.Frame().Data()...)

	src.readErr = errors.New("capture stalled")
	if r.Tick() {
		t.Error("tick should report no new frame when the read fails")
	}
	got := r.Frame()
	if got == nil {
		t.Fatal("previous frame lost after a failed tick")
	}
	for i, b := range got.Data() {
		if b != want[i] {
			t.Fatalf("displayed frame changed at byte %d after a failed tick", i)
		}
	}
}

func TestRenderer_GPUFailureAlsoKeepsFrame(t *testing.T) {
	src := &stubSource{width: 4, height: 4, readyState: HaveCurrentData, frame: greenWhiteFrame(4, 4)}
	fake := &fakeAccelerator{}
	r := NewRenderer(src, WithCompositor(newShaderCompositor(fake)))
	defer r.Close()

	if !r.Tick() {
		t.Fatal("first tick should produce a frame")
	}
	fake.frameErr = errors.New("device lost")
	if r.Tick() {
		t.Error("tick should report no new frame when the dispatch fails")
	}
	if r.Frame() == nil {
		t.Error("previous frame lost after a failed dispatch")
	}
}

func TestRenderer_Snapshot(t *testing.T) {
	src := &stubSource{width: 4, height: 2, readyState: HaveCurrentData, frame: greenWhiteFrame(4, 2)}
	r := NewRenderer(src, WithCompositor(NewPixelCompositor()))
	defer r.Close()

	if r.Snapshot() != nil {
		t.Error("Snapshot() should be nil before the first frame")
	}
	if r.SnapshotScaled(8, 4) != nil {
		t.Error("SnapshotScaled() should be nil before the first frame")
	}

	if !r.Tick() {
		t.Fatal("tick failed")
	}

	img := r.Snapshot()
	if img == nil {
		t.Fatal("Snapshot() nil after a frame")
	}
	if img.Rect.Dx() != 4 || img.Rect.Dy() != 2 {
		t.Errorf("snapshot size = %dx%d, want 4x2", img.Rect.Dx(), img.Rect.Dy())
	}
	// Snapshot is a copy, not a view of the renderer's buffer.
	img.Pix[3] = 127
	if r.Frame().Alpha(0, 0) == 127 {
		t.Error("mutating the snapshot changed the renderer's frame")
	}

	scaled := r.SnapshotScaled(8, 4)
	if scaled == nil {
		t.Fatal("SnapshotScaled() nil after a frame")
	}
	if scaled.Rect.Dx() != 8 || scaled.Rect.Dy() != 4 {
		t.Errorf("scaled size = %dx%d, want 8x4", scaled.Rect.Dx(), scaled.Rect.Dy())
	}
	if r.SnapshotScaled(0, 4) != nil {
		t.Error("SnapshotScaled with a non-positive size should return nil")
	}
}

func TestRenderer_DefaultController(t *testing.T) {
	src := &stubSource{width: 2, height: 2, readyState: HaveCurrentData, frame: greenWhiteFrame(2, 2)}
	r := NewRenderer(src, WithCompositor(NewPixelCompositor()))
	defer r.Close()

	if r.Controller() == nil {
		t.Fatal("renderer should create its own controller")
	}
	if got := r.Controller().Get(); got != DefaultParameters() {
		t.Errorf("controller defaults = %+v, want %+v", got, DefaultParameters())
	}
}

func TestRenderer_SharedController(t *testing.T) {
	ctl := NewController()
	src := &stubSource{width: 2, height: 2, readyState: HaveCurrentData, frame: greenWhiteFrame(2, 2)}
	r := NewRenderer(src,
		WithCompositor(NewPixelCompositor()),
		WithController(ctl))
	defer r.Close()

	if r.Controller() != ctl {
		t.Error("renderer should use the provided controller")
	}
}

func TestRenderer_CloseIdempotent(t *testing.T) {
	src := &stubSource{width: 2, height: 2, readyState: HaveCurrentData, frame: greenWhiteFrame(2, 2)}
	fake := &fakeAccelerator{}
	r := NewRenderer(src, WithCompositor(newShaderCompositor(fake)))

	r.Close()
	r.Close()
	if r.Tick() {
		t.Error("tick after Close should do nothing")
	}
}
