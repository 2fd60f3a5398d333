package vfx

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween animates up to 4 float64 effect parameters simultaneously. Create
// one with TweenParam, TweenParams or TweenColor and call Update(dt) each
// frame; values are written straight into the target fields.
//
// There is no global animation manager; callers update tweens themselves or
// collect them in an Animator.
type Tween struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes the current values.
func (t *Tween) Update(dt float32) {
	if t.Done {
		return
	}
	allDone := true
	for i := 0; i < t.count; i++ {
		val, finished := t.tweens[i].Update(dt)
		*t.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	t.Done = allDone
}

// Reset rewinds the tween to its start values.
func (t *Tween) Reset() {
	for i := 0; i < t.count; i++ {
		t.tweens[i].Reset()
	}
	t.Done = false
}

// TweenParam animates *field from its current value to `to` over duration
// seconds using fn (e.g. ease.InOutQuad).
func TweenParam(field *float64, to float64, duration float32, fn ease.TweenFunc) *Tween {
	t := &Tween{count: 1}
	t.tweens[0] = gween.New(float32(*field), float32(to), duration, fn)
	t.fields[0] = field
	return t
}

// TweenParams animates up to 4 fields at once. Extra fields beyond 4, or
// fields without a matching target, are ignored.
func TweenParams(fields []*float64, to []float64, duration float32, fn ease.TweenFunc) *Tween {
	t := &Tween{}
	for i, f := range fields {
		if i >= len(t.fields) || i >= len(to) {
			break
		}
		t.tweens[i] = gween.New(float32(*f), float32(to[i]), duration, fn)
		t.fields[i] = f
		t.count++
	}
	return t
}

// TweenColor animates all four components of *c to the target colour.
func TweenColor(c *Color, to Color, duration float32, fn ease.TweenFunc) *Tween {
	return TweenParams(
		[]*float64{&c.R, &c.G, &c.B, &c.A},
		[]float64{to.R, to.G, to.B, to.A},
		duration, fn)
}

// Animator updates a set of tweens and drops them once finished.
type Animator struct {
	tweens []*Tween
}

// Add registers tweens for updating.
func (a *Animator) Add(tweens ...*Tween) {
	a.tweens = append(a.tweens, tweens...)
}

// Update advances every tween by dt seconds, removing finished ones.
func (a *Animator) Update(dt float32) {
	n := 0
	for _, t := range a.tweens {
		t.Update(dt)
		if !t.Done {
			a.tweens[n] = t
			n++
		}
	}
	clear(a.tweens[n:])
	a.tweens = a.tweens[:n]
}

// Len returns the number of running tweens.
func (a *Animator) Len() int { return len(a.tweens) }
