package chromakey

import "sync/atomic"

// Controller holds the current keying parameters and hands the latest value
// to whichever compositor is active on the next frame.
//
// The render loop reads once per tick and the UI writes on input events, so
// the value is stored as an atomic snapshot: a reader always sees a complete
// Parameters struct, never a half-written one. A stale read costs at most one
// frame of slightly wrong tuning, which the next tick corrects.
type Controller struct {
	params atomic.Pointer[Parameters]
}

// NewController creates a controller initialized with DefaultParameters.
func NewController() *Controller {
	c := &Controller{}
	p := DefaultParameters()
	c.params.Store(&p)
	return c
}

// Set replaces the current parameters. Out-of-domain values are clamped, and
// the clamp is logged at debug level so silent corrections stay observable.
func (c *Controller) Set(p Parameters) {
	clamped := p.Clamp()
	if clamped != p {
		Logger().Debug("chromakey: parameters clamped",
			"similarity", clamped.Similarity,
			"smoothness", clamped.Smoothness,
			"spill", clamped.Spill)
	}
	c.params.Store(&clamped)
}

// Get returns the current parameters.
func (c *Controller) Get() Parameters {
	return *c.params.Load()
}

// ApplyPreset sets the named preset. It returns false and leaves the current
// parameters untouched when the name is unknown.
func (c *Controller) ApplyPreset(name string) bool {
	p, ok := Preset(name)
	if !ok {
		return false
	}
	c.Set(p)
	return true
}
