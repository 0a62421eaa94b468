package main

import (
	"math"

	"github.com/gogpu/chromakey"
)

// syntheticSource is a stand-in for a live avatar feed: an animated subject
// in front of a pure green backdrop, with spill-tinted edges.
//
// It reproduces the quirks of real-time sources on purpose: it reports
// Paused() == true and CurrentTime() == 0 forever while streaming, and it
// spends its first few ticks in a warming-up state with zero dimensions so
// the readiness gate has something to gate.
type syntheticSource struct {
	width, height int
	warmupTicks   int
	tick          int
	frame         *chromakey.Pixmap
}

var _ chromakey.FrameSource = (*syntheticSource)(nil)

func newSyntheticSource(width, height int) *syntheticSource {
	return &syntheticSource{
		width:       width,
		height:      height,
		warmupTicks: 30,
		frame:       chromakey.NewPixmap(width, height),
	}
}

// advance moves the animation forward one display tick.
func (s *syntheticSource) advance() { s.tick++ }

func (s *syntheticSource) warm() bool { return s.tick >= s.warmupTicks }

func (s *syntheticSource) VideoWidth() int {
	if !s.warm() {
		return 0
	}
	return s.width
}

func (s *syntheticSource) VideoHeight() int {
	if !s.warm() {
		return 0
	}
	return s.height
}

func (s *syntheticSource) ReadyState() chromakey.ReadyState {
	if !s.warm() {
		return chromakey.HaveNothing
	}
	return chromakey.HaveCurrentData
}

func (s *syntheticSource) Ended() bool          { return false }
func (s *syntheticSource) Paused() bool         { return true }
func (s *syntheticSource) CurrentTime() float64 { return 0 }

func (s *syntheticSource) ReadFrame(dst *chromakey.Pixmap) error {
	if !s.warm() {
		return chromakey.ErrNoFrame
	}
	s.render()
	dst.Resize(s.width, s.height)
	copy(dst.Data(), s.frame.Data())
	return nil
}

// render draws the current animation frame: green backdrop, an orbiting
// disc subject, and a green-tinted rim around the disc that exercises
// spill suppression.
func (s *syntheticSource) render() {
	s.frame.Fill(chromakey.Green)

	t := float64(s.tick) / 60.0
	cx := float64(s.width)/2 + math.Cos(t)*float64(s.width)/4
	cy := float64(s.height)/2 + math.Sin(t*1.3)*float64(s.height)/4
	radius := float64(s.height) / 5
	rim := radius * 1.15

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d < radius:
				// Subject: warm skin-ish tone.
				s.frame.SetPixel(x, y, chromakey.RGB(0.85, 0.62, 0.48))
			case d < rim:
				// Spill rim: subject color contaminated by the backdrop.
				f := (d - radius) / (rim - radius)
				s.frame.SetPixel(x, y, chromakey.RGB(
					0.85-0.5*f,
					0.62+0.3*f,
					0.48-0.3*f,
				))
			}
		}
	}
}
