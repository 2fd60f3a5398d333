package vfx

// captureState is the CaptureSession state machine: Idle -> Capturing -> Idle.
type captureState uint8

const (
	captureIdle captureState = iota
	captureCapturing
)

func (s captureState) String() string {
	if s == captureCapturing {
		return "capturing"
	}
	return "idle"
}

// CaptureSession redirects a Batch's draw calls into an off-screen buffer
// between Begin and End. It never clears the buffer; callers clear before
// drawing a fresh frame.
type CaptureSession[I any] struct {
	batch    Batch[I]
	state    captureState
	target   *Buffer[I]
	previous I
}

// NewCaptureSession creates an idle session. batch may be nil when the caller
// draws straight into Target().Image() instead of through a batch.
func NewCaptureSession[I any](batch Batch[I]) *CaptureSession[I] {
	return &CaptureSession[I]{batch: batch}
}

// Begin starts redirecting draws into target. Draws already queued for the
// previous target are flushed first so ordering never crosses buffers.
// Begin fails with ErrInvalidState while a capture is active; the active
// capture is left untouched.
func (c *CaptureSession[I]) Begin(target *Buffer[I]) error {
	if c.state == captureCapturing {
		return stateErr("capture begin", c.state)
	}
	if target == nil || target.released {
		return &StateError{Op: "capture begin", State: "released target"}
	}
	if c.batch != nil {
		drawing := c.batch.IsDrawing()
		if drawing {
			c.batch.End()
		}
		c.previous = c.batch.Target()
		c.batch.SetTarget(target.image)
		if drawing {
			c.batch.Begin()
		}
	}
	c.target = target
	c.state = captureCapturing
	return nil
}

// End flushes pending draws into the captured buffer and restores the
// previous target. It fails with ErrInvalidState when no capture is active.
func (c *CaptureSession[I]) End() error {
	if c.state != captureCapturing {
		return stateErr("capture end", c.state)
	}
	if c.batch != nil {
		drawing := c.batch.IsDrawing()
		if drawing {
			c.batch.End()
		}
		c.batch.SetTarget(c.previous)
		if drawing {
			c.batch.Begin()
		}
		var zero I
		c.previous = zero
	}
	c.target = nil
	c.state = captureIdle
	return nil
}

// Capturing reports whether a capture is active.
func (c *CaptureSession[I]) Capturing() bool { return c.state == captureCapturing }

// Target returns the buffer being captured into, or nil when idle.
func (c *CaptureSession[I]) Target() *Buffer[I] { return c.target }
