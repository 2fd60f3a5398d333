package vfx

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Effect is an image-space transform. Apply reads src and writes dst; the two
// are always distinct images of equal size, and dst has been cleared. Effects
// are borrowed by the pipeline: the caller creates and disposes them.
type Effect[I any] interface {
	Apply(src, dst I) error
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc[I any] func(src, dst I) error

// Apply calls f(src, dst).
func (f EffectFunc[I]) Apply(src, dst I) error { return f(src, dst) }

// Toggler is implemented by effects that can be switched off. Disabled
// effects are skipped without costing a buffer swap.
type Toggler interface {
	Enabled() bool
}

// Toggle is embedded by effects to implement Toggler. The zero value is
// enabled.
type Toggle struct {
	Disabled bool
}

// Enabled reports whether the effect runs.
func (t *Toggle) Enabled() bool { return !t.Disabled }

// SetEnabled switches the effect on or off.
func (t *Toggle) SetEnabled(on bool) { t.Disabled = !on }

// Resizer is implemented by effects that keep size-dependent state. Resize is
// called after every committed pipeline resize.
type Resizer interface {
	Resize(width, height int)
}

// Updater is implemented by time-dependent effects. Manager.Update forwards
// the frame delta in seconds.
type Updater interface {
	Update(dt float32)
}

// Namer is implemented by effects that want a readable name in errors and
// stats.
type Namer interface {
	Name() string
}

// EffectName returns the effect's Name when it implements Namer, otherwise
// its dynamic type.
func EffectName(e any) string {
	if n, ok := e.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", e)
}

func effectEnabled(e any) bool {
	if t, ok := e.(Toggler); ok {
		return t.Enabled()
	}
	return true
}

// Chain is an ordered list of effects. Insertion order is application order;
// the same effect may appear more than once.
type Chain[I any] struct {
	effects []Effect[I]
}

// Add appends effects to the end of the chain.
func (c *Chain[I]) Add(effects ...Effect[I]) {
	for _, e := range effects {
		if e != nil {
			c.effects = append(c.effects, e)
		}
	}
}

// Remove removes the first occurrence of e and reports whether it was found.
func (c *Chain[I]) Remove(e Effect[I]) bool {
	for i, existing := range c.effects {
		if sameEffect(existing, e) {
			c.effects = append(c.effects[:i], c.effects[i+1:]...)
			return true
		}
	}
	return false
}

// sameEffect compares two effects without panicking on uncomparable dynamic
// types such as EffectFunc, which never compare equal.
func sameEffect[I any](a, b Effect[I]) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

// RemoveAll empties the chain. Effects are not disposed.
func (c *Chain[I]) RemoveAll() {
	clear(c.effects)
	c.effects = c.effects[:0]
}

// Len returns the number of effects, enabled or not.
func (c *Chain[I]) Len() int { return len(c.effects) }

// Effects returns the chain contents. The returned slice MUST NOT be mutated.
func (c *Chain[I]) Effects() []Effect[I] { return c.effects }

// AnyEnabled reports whether at least one effect would run.
func (c *Chain[I]) AnyEnabled() bool {
	for _, e := range c.effects {
		if effectEnabled(e) {
			return true
		}
	}
	return false
}

var errBufferHazard = errors.New("source and destination alias or are released")

// chainRun is the outcome of one chain application.
type chainRun[I any] struct {
	result    *Buffer[I]
	attempted int
	swaps     int
	timings   []EffectTiming
}

// applyChain runs effects over input, ping-ponging between the two work
// buffers. input must be one of them. Each applied effect writes the buffer
// that is not its source, after which the roles swap. With nothing to apply
// the input buffer is returned untouched.
func applyChain[I any](dev Device[I], effects []Effect[I], input *Buffer[I], work [2]*Buffer[I], timed bool) (chainRun[I], error) {
	run := chainRun[I]{result: input}
	var src, dst *Buffer[I]
	switch input {
	case work[0]:
		src, dst = work[0], work[1]
	case work[1]:
		src, dst = work[1], work[0]
	default:
		return run, &StateError{Op: "apply effects", State: "input is not a work buffer"}
	}

	for i, e := range effects {
		if !effectEnabled(e) {
			continue
		}
		if src == dst || src.released || dst.released {
			return run, &EffectError{Index: i, Name: EffectName(e), Err: errBufferHazard}
		}
		dev.ClearImage(dst.image)
		run.attempted++

		var t0 time.Time
		if timed {
			t0 = time.Now()
		}
		if err := e.Apply(src.image, dst.image); err != nil {
			return run, &EffectError{Index: i, Name: EffectName(e), Err: err}
		}
		if timed {
			run.timings = append(run.timings, EffectTiming{Name: EffectName(e), Duration: time.Since(t0)})
		}

		src, dst = dst, src
		run.swaps++
	}
	run.result = src
	return run, nil
}
