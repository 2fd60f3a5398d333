package vfx

import (
	"fmt"
	"image"
	"log/slog"
	"reflect"
	"time"
)

// Config holds construction-time settings for a Manager.
type Config struct {
	// Format is the pixel format of both work buffers. Fixed for the
	// manager's lifetime.
	Format PixelFormat
	// Width and Height, when both positive, allocate the work buffers up
	// front. Otherwise allocation waits for the first Resize, or for the
	// first capture, which then sizes the buffers to the display viewport.
	Width, Height int
	// Blending composites the result source-over in RenderToScreen instead
	// of replacing the target's pixels.
	Blending bool
	// Debug collects per-effect timings and logs frame stats at debug level.
	Debug bool
}

// phase is the Manager's position in the per-frame protocol.
type phase uint8

const (
	phaseIdle      phase = iota // no frame captured
	phaseCapturing              // between BeginInputCapture and EndInputCapture
	phaseCaptured               // input ready, effects not yet applied
	phaseApplied                // result available
	phaseDisposed
	phaseBroken // a buffer allocation failed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseCapturing:
		return "capturing"
	case phaseCaptured:
		return "captured"
	case phaseApplied:
		return "applied"
	case phaseDisposed:
		return "disposed"
	case phaseBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Manager is the effect pipeline: it captures a frame's drawing into an
// off-screen buffer, runs the effect chain over it ping-ponging between two
// work buffers, and composites the result.
//
// A frame runs strictly in order:
//
//	m.CleanUpBuffers()
//	m.BeginInputCapture()
//	// ... draw ...
//	m.EndInputCapture()
//	m.ApplyEffects()
//	m.RenderToScreen()
//
// Out-of-order calls return an error matching ErrInvalidState. The manager is
// not safe for concurrent use; all calls belong on the render thread.
//
// Effects are borrowed. Dispose releases the work buffers only; the caller
// remains responsible for disposing the effects it created.
type Manager[I any] struct {
	dev     Device[I]
	display Display[I]
	pool    *Pool[I]
	session *CaptureSession[I]
	chain   Chain[I]

	buffers [2]*Buffer[I]
	result  *Buffer[I]

	format   PixelFormat
	width    int
	height   int
	blending bool
	debug    bool

	pending            bool
	pendingW, pendingH int

	phase     phase
	brokenErr error

	stats        FrameStats
	captureStart time.Time
}

// NewManager creates a manager drawing through dev and presenting to display.
// batch may be nil when callers draw directly into the captured image.
func NewManager[I any](dev Device[I], display Display[I], batch Batch[I], cfg Config) (*Manager[I], error) {
	if dev == nil {
		return nil, fmt.Errorf("vfx: new manager: nil device: %w", ErrInvalidState)
	}
	if display == nil {
		return nil, fmt.Errorf("vfx: new manager: nil display: %w", ErrInvalidState)
	}
	if cfg.Format.BytesPerPixel() == 0 {
		return nil, &AllocationError{Width: cfg.Width, Height: cfg.Height, Format: cfg.Format, Err: ErrUnsupportedFormat}
	}
	m := &Manager[I]{
		dev:      dev,
		display:  display,
		pool:     NewPool(dev),
		session:  NewCaptureSession(batch),
		format:   cfg.Format,
		blending: cfg.Blending,
		debug:    cfg.Debug,
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		if err := m.Resize(cfg.Width, cfg.Height); err != nil {
			m.pool.Dispose()
			return nil, err
		}
	}
	return m, nil
}

// alive reports an error when the manager can no longer run operations.
func (m *Manager[I]) alive(op string) error {
	switch m.phase {
	case phaseDisposed:
		return stateErr(op, m.phase)
	case phaseBroken:
		return fmt.Errorf("vfx: %s: pipeline unusable: %w", op, m.brokenErr)
	}
	return nil
}

// inFlight reports whether the work buffers hold data the current frame still
// needs, so reallocating them now would lose it.
func (m *Manager[I]) inFlight() bool {
	return m.phase == phaseCapturing || m.phase == phaseCaptured || m.phase == phaseApplied
}

// Resize requests new buffer dimensions. When no frame is in flight the
// buffers are reallocated immediately; otherwise the request is recorded and
// committed before the next capture begins, so Width and Height keep
// reporting the old size until then. Requesting the current size is a no-op.
func (m *Manager[I]) Resize(width, height int) error {
	if err := m.alive("resize"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return &AllocationError{Width: width, Height: height, Format: m.format, Err: ErrInvalidSize}
	}
	if m.buffers[0] != nil && width == m.width && height == m.height {
		m.pending = false
		return nil
	}
	m.pending = true
	m.pendingW, m.pendingH = width, height
	if m.inFlight() {
		Logger().Debug("vfx: resize deferred", slog.Int("width", width), slog.Int("height", height),
			slog.String("phase", m.phase.String()))
		return nil
	}
	return m.commitResize()
}

// commitResize applies a pending resize, allocating the buffers on first use.
func (m *Manager[I]) commitResize() error {
	if !m.pending {
		return nil
	}
	w, h := m.pendingW, m.pendingH
	m.pending = false

	for i := range m.buffers {
		var err error
		if m.buffers[i] == nil {
			m.buffers[i], err = m.pool.Allocate(w, h, m.format)
		} else {
			err = m.pool.Resize(m.buffers[i], w, h)
		}
		if err != nil {
			m.fail(err)
			return err
		}
	}
	m.width, m.height = w, h
	m.result = nil
	if m.phase == phaseApplied || m.phase == phaseCaptured {
		m.phase = phaseIdle
	}
	for _, e := range m.chain.effects {
		if r, ok := e.(Resizer); ok {
			r.Resize(w, h)
		}
	}
	Logger().Debug("vfx: resize committed", slog.Int("width", w), slog.Int("height", h))
	return nil
}

// ensureBuffers commits any pending resize and allocates the buffers at the
// display viewport size when no size was ever requested.
func (m *Manager[I]) ensureBuffers() error {
	if m.pending {
		return m.commitResize()
	}
	if m.buffers[0] != nil {
		return nil
	}
	vp := m.display.Viewport()
	if vp.Empty() {
		return &AllocationError{Width: vp.Dx(), Height: vp.Dy(), Format: m.format, Err: ErrInvalidSize}
	}
	m.pending = true
	m.pendingW, m.pendingH = vp.Dx(), vp.Dy()
	return m.commitResize()
}

// fail moves the manager into the broken state after an allocation failure.
// Buffers already created are released; the manager stays safe to Dispose.
func (m *Manager[I]) fail(err error) {
	Logger().Warn("vfx: pipeline disabled", slog.Any("err", err))
	if m.session.Capturing() {
		_ = m.session.End()
	}
	m.pool.Dispose()
	m.buffers = [2]*Buffer[I]{}
	m.result = nil
	m.brokenErr = err
	m.phase = phaseBroken
}

// CleanUpBuffers clears both work buffers before a new frame's capture. It
// commits a pending resize first. Effects needing history across frames must
// keep their own images; this call discards whatever the work buffers held.
func (m *Manager[I]) CleanUpBuffers() error {
	if err := m.alive("clean up buffers"); err != nil {
		return err
	}
	if m.phase == phaseCapturing {
		return stateErr("clean up buffers", m.phase)
	}
	m.phase = phaseIdle
	m.result = nil
	if err := m.ensureBuffers(); err != nil {
		return err
	}
	m.pool.Clear(m.buffers[0])
	m.pool.Clear(m.buffers[1])
	return nil
}

// BeginInputCapture redirects subsequent drawing into the primary work
// buffer. A pending resize is committed first.
func (m *Manager[I]) BeginInputCapture() error {
	if err := m.alive("begin input capture"); err != nil {
		return err
	}
	if m.phase == phaseCapturing {
		return stateErr("begin input capture", m.phase)
	}
	m.phase = phaseIdle
	m.result = nil
	if err := m.ensureBuffers(); err != nil {
		return err
	}
	if err := m.session.Begin(m.buffers[0]); err != nil {
		return err
	}
	m.phase = phaseCapturing
	if m.debug {
		m.captureStart = time.Now()
	}
	return nil
}

// InputTexture returns the image being captured into, for callers that draw
// directly instead of through the batch. It is only valid between
// BeginInputCapture and EndInputCapture.
func (m *Manager[I]) InputTexture() (I, error) {
	var zero I
	if err := m.alive("input texture"); err != nil {
		return zero, err
	}
	if m.phase != phaseCapturing {
		return zero, stateErr("input texture", m.phase)
	}
	return m.buffers[0].image, nil
}

// EndInputCapture flushes pending draws into the captured buffer and restores
// the previous drawing target.
func (m *Manager[I]) EndInputCapture() error {
	if err := m.alive("end input capture"); err != nil {
		return err
	}
	if err := m.session.End(); err != nil {
		return err
	}
	m.phase = phaseCaptured
	if m.debug {
		m.stats.CaptureTime = time.Since(m.captureStart)
	}
	return nil
}

// UseAsInput copies src into the primary work buffer as if it had been
// captured, scaling it to the buffer size. The frame continues with
// ApplyEffects. A work buffer, such as ResultTexture from the previous
// frame, is used in place without copying.
func (m *Manager[I]) UseAsInput(src I) error {
	if err := m.alive("use as input"); err != nil {
		return err
	}
	if m.phase == phaseCapturing {
		return stateErr("use as input", m.phase)
	}
	m.phase = phaseIdle
	m.result = nil

	// src may be one of the work buffers, e.g. a ResultTexture fed back in.
	// It is used in place; a pending resize waits for the next frame.
	switch {
	case m.buffers[0] != nil && sameImage(src, m.buffers[0].image):
	case m.buffers[1] != nil && sameImage(src, m.buffers[1].image):
		m.buffers[0], m.buffers[1] = m.buffers[1], m.buffers[0]
	default:
		if err := m.ensureBuffers(); err != nil {
			return err
		}
		dst := m.buffers[0]
		m.dev.ClearImage(dst.image)
		m.dev.Blit(dst.image, src, image.Rect(0, 0, dst.width, dst.height), false)
	}
	m.phase = phaseCaptured
	m.stats.CaptureTime = 0
	return nil
}

// sameImage reports whether a and b are the same image handle. Handle types
// that are not comparable never match.
func sameImage[I any](a, b I) bool {
	t := reflect.TypeOf(a)
	if t == nil || t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return any(a) == any(b)
}

// ApplyEffects runs the chain over the captured frame. On failure the frame
// is dropped: the error matches ErrEffectApplication and the manager returns
// to idle, ready for the next frame.
func (m *Manager[I]) ApplyEffects() error {
	if err := m.alive("apply effects"); err != nil {
		return err
	}
	if m.phase != phaseCaptured {
		return stateErr("apply effects", m.phase)
	}

	var t0 time.Time
	if m.debug {
		t0 = time.Now()
	}
	run, err := applyChain(m.dev, m.chain.effects, m.buffers[0], m.buffers, m.debug)
	m.stats.Applied = run.attempted
	m.stats.Swaps = run.swaps
	m.stats.Effects = run.timings
	if err != nil {
		Logger().Warn("vfx: frame dropped", slog.Any("err", err))
		m.phase = phaseIdle
		m.result = nil
		return err
	}

	m.result = run.result
	m.phase = phaseApplied
	m.stats.Frame++
	m.stats.ResultIndex = 0
	if run.result == m.buffers[1] {
		m.stats.ResultIndex = 1
	}
	if m.debug {
		m.stats.ApplyTime = time.Since(t0)
	}
	return nil
}

// RenderToScreen draws the result over the display's viewport of its bound
// target. It may be called more than once per frame.
func (m *Manager[I]) RenderToScreen() error {
	return m.render("render to screen", m.display.BoundTarget(), m.display.Viewport())
}

// RenderTo draws the result scaled into viewport of dst.
func (m *Manager[I]) RenderTo(dst I, viewport image.Rectangle) error {
	return m.render("render to", dst, viewport)
}

func (m *Manager[I]) render(op string, dst I, viewport image.Rectangle) error {
	if err := m.alive(op); err != nil {
		return err
	}
	if m.phase != phaseApplied {
		return stateErr(op, m.phase)
	}
	var t0 time.Time
	if m.debug {
		t0 = time.Now()
	}
	m.dev.Blit(dst, m.result.image, viewport, m.blending)
	if m.debug {
		m.stats.RenderTime = time.Since(t0)
		m.stats.debugLog()
	}
	return nil
}

// ResultTexture returns the image holding the processed frame, for
// compositing into a widget or another pipeline. It stays valid until the
// next CleanUpBuffers, BeginInputCapture, UseAsInput, committed resize or
// Dispose.
func (m *Manager[I]) ResultTexture() (I, error) {
	var zero I
	if err := m.alive("result texture"); err != nil {
		return zero, err
	}
	if m.phase != phaseApplied {
		return zero, stateErr("result texture", m.phase)
	}
	return m.result.image, nil
}

// Update advances every effect implementing Updater by dt seconds.
func (m *Manager[I]) Update(dt float32) error {
	if err := m.alive("update"); err != nil {
		return err
	}
	for _, e := range m.chain.effects {
		if u, ok := e.(Updater); ok {
			u.Update(dt)
		}
	}
	return nil
}

// AddEffect appends effects to the chain. Effects implementing Resizer are
// told the current buffer size right away.
func (m *Manager[I]) AddEffect(effects ...Effect[I]) error {
	if err := m.alive("add effect"); err != nil {
		return err
	}
	m.chain.Add(effects...)
	if m.buffers[0] != nil {
		for _, e := range effects {
			if r, ok := e.(Resizer); ok {
				r.Resize(m.width, m.height)
			}
		}
	}
	return nil
}

// RemoveEffect removes the first occurrence of e from the chain. The effect
// is not disposed.
func (m *Manager[I]) RemoveEffect(e Effect[I]) error {
	if err := m.alive("remove effect"); err != nil {
		return err
	}
	m.chain.Remove(e)
	return nil
}

// RemoveAllEffects empties the chain without disposing any effect.
func (m *Manager[I]) RemoveAllEffects() error {
	if err := m.alive("remove all effects"); err != nil {
		return err
	}
	m.chain.RemoveAll()
	return nil
}

// Effects returns the chain in application order. The returned slice MUST
// NOT be mutated.
func (m *Manager[I]) Effects() []Effect[I] { return m.chain.Effects() }

// HasEffects reports whether the chain is non-empty.
func (m *Manager[I]) HasEffects() bool { return m.chain.Len() > 0 }

// AnyEnabledEffects reports whether ApplyEffects would run at least one effect.
func (m *Manager[I]) AnyEnabledEffects() bool { return m.chain.AnyEnabled() }

// SetBlendingEnabled selects source-over compositing (true) or replacement
// (false) for RenderToScreen and RenderTo.
func (m *Manager[I]) SetBlendingEnabled(enabled bool) { m.blending = enabled }

// BlendingEnabled reports the compositing mode.
func (m *Manager[I]) BlendingEnabled() bool { return m.blending }

// Width returns the committed buffer width; 0 before the first allocation.
func (m *Manager[I]) Width() int { return m.width }

// Height returns the committed buffer height; 0 before the first allocation.
func (m *Manager[I]) Height() int { return m.height }

// Format returns the buffers' pixel format.
func (m *Manager[I]) Format() PixelFormat { return m.format }

// PendingResize reports a deferred resize and its dimensions.
func (m *Manager[I]) PendingResize() (width, height int, ok bool) {
	return m.pendingW, m.pendingH, m.pending
}

// Capturing reports whether a capture is active.
func (m *Manager[I]) Capturing() bool { return m.phase == phaseCapturing }

// Disposed reports whether Dispose has been called.
func (m *Manager[I]) Disposed() bool { return m.phase == phaseDisposed }

// Stats returns the statistics of the most recent frame.
func (m *Manager[I]) Stats() FrameStats { return m.stats }

// Dispose releases both work buffers and ends an active capture. Effects in
// the chain are NOT disposed; they belong to the caller. Every later call
// fails with ErrInvalidState.
func (m *Manager[I]) Dispose() error {
	if m.phase == phaseDisposed {
		return stateErr("dispose", m.phase)
	}
	if m.session.Capturing() {
		_ = m.session.End()
	}
	m.pool.Dispose()
	m.buffers = [2]*Buffer[I]{}
	m.result = nil
	m.pending = false
	m.phase = phaseDisposed
	return nil
}
