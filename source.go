package chromakey

import (
	"errors"
	"image"
)

// ReadyState describes how much decoded data a frame source currently has.
// The ladder mirrors the states real-time video elements report, from no
// data at all up to enough buffered data for uninterrupted playback.
type ReadyState int

const (
	// HaveNothing means no information about the stream is available.
	HaveNothing ReadyState = iota

	// HaveMetadata means dimensions are known but no frame is decoded.
	HaveMetadata

	// HaveCurrentData means the current frame is decoded. Real-time
	// sources frequently park here while actively streaming.
	HaveCurrentData

	// HaveFutureData means at least one frame beyond the current one is
	// decoded.
	HaveFutureData

	// HaveEnoughData means playback can proceed without stalling.
	HaveEnoughData
)

// String returns a human-readable name for the state.
func (s ReadyState) String() string {
	switch s {
	case HaveNothing:
		return "HaveNothing"
	case HaveMetadata:
		return "HaveMetadata"
	case HaveCurrentData:
		return "HaveCurrentData"
	case HaveFutureData:
		return "HaveFutureData"
	case HaveEnoughData:
		return "HaveEnoughData"
	default:
		return "Unknown"
	}
}

// ErrNoFrame is returned by ReadFrame when the source has no decoded frame.
var ErrNoFrame = errors.New("chromakey: source has no decoded frame")

// FrameSource is a live, continuously updating video frame producer. The
// compositor only reads from it; lifecycle and ownership stay with whatever
// supplies the video (typically a real-time conversation service).
//
// Paused and CurrentTime are exposed for diagnostics only. Real-time
// streaming sources may report Paused() == true and CurrentTime() == 0
// forever while still delivering fresh decoded frames, so nothing in this
// package gates on either of them.
type FrameSource interface {
	// VideoWidth returns the decoded frame width in pixels, or 0 if no
	// frame has been decoded yet.
	VideoWidth() int

	// VideoHeight returns the decoded frame height in pixels, or 0 if no
	// frame has been decoded yet.
	VideoHeight() int

	// ReadyState returns the current decode state.
	ReadyState() ReadyState

	// Ended reports whether the stream has permanently finished.
	Ended() bool

	// Paused reports the source's playback flag. Diagnostic only; see the
	// interface comment.
	Paused() bool

	// CurrentTime returns the source's playback position in seconds.
	// Diagnostic only; see the interface comment.
	CurrentTime() float64

	// ReadFrame copies the current decoded frame into dst, resizing dst
	// to the frame dimensions. Only valid when Ready(source) is true.
	ReadFrame(dst *Pixmap) error
}

// BottomUpSource is an optional capability: sources whose pixel rows are
// stored bottom-up (common for GPU-texture-backed frames) implement it and
// return true. Both compositor paths then flip rows so output is always
// top-down; forgetting this flip is the classic upside-down-composite bug.
type BottomUpSource interface {
	BottomUp() bool
}

// sourceBottomUp reports whether src delivers bottom-up rows.
func sourceBottomUp(src FrameSource) bool {
	if bu, ok := src.(BottomUpSource); ok {
		return bu.BottomUp()
	}
	return false
}

// Ready reports whether src is safe to sample this tick: non-zero decoded
// dimensions, the current frame decoded, and the stream not ended.
//
// Ready deliberately ignores Paused and CurrentTime. Standard "is this video
// playing" checks gate on those fields, and against real-time sources that
// report paused=true and currentTime=0 while streaming they stall the
// pipeline forever.
func Ready(src FrameSource) bool {
	if src == nil {
		return false
	}
	return src.VideoWidth() > 0 &&
		src.VideoHeight() > 0 &&
		src.ReadyState() >= HaveCurrentData &&
		!src.Ended()
}

// ImageSource adapts a static image into a FrameSource. It reports
// HaveEnoughData immediately and serves the same pixels every tick, which
// makes it useful for offline keying (one frame in, one keyed frame out)
// and for tests.
type ImageSource struct {
	frame *Pixmap
	ended bool
}

var _ FrameSource = (*ImageSource)(nil)

// NewImageSource creates a source that serves img as its only frame.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{frame: FromImage(img)}
}

// NewPixmapSource creates a source that serves pm as its only frame.
// The source aliases pm; mutating pm between ticks changes the served frame.
func NewPixmapSource(pm *Pixmap) *ImageSource {
	return &ImageSource{frame: pm}
}

// VideoWidth returns the frame width.
func (s *ImageSource) VideoWidth() int { return s.frame.Width() }

// VideoHeight returns the frame height.
func (s *ImageSource) VideoHeight() int { return s.frame.Height() }

// ReadyState always reports HaveEnoughData.
func (s *ImageSource) ReadyState() ReadyState { return HaveEnoughData }

// Ended reports whether End was called.
func (s *ImageSource) Ended() bool { return s.ended }

// Paused always reports true, matching how a static frame presents itself.
func (s *ImageSource) Paused() bool { return true }

// CurrentTime always reports 0.
func (s *ImageSource) CurrentTime() float64 { return 0 }

// ReadFrame copies the frame into dst.
func (s *ImageSource) ReadFrame(dst *Pixmap) error {
	if s.frame == nil {
		return ErrNoFrame
	}
	dst.Resize(s.frame.Width(), s.frame.Height())
	copy(dst.Data(), s.frame.Data())
	return nil
}

// End marks the source as ended; Ready returns false afterwards.
func (s *ImageSource) End() { s.ended = true }
