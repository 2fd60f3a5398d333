package chain

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/phanxgames/vfx"
)

// Params holds an effect's parameters as decoded from TOML or YAML. Numbers
// may arrive as any Go integer or float type.
type Params map[string]any

// Float returns the named number, or def when it is absent.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %s: want number, got %T", ErrBadParam, name, v)
}

// Int returns the named number truncated to an int, or def when it is
// absent. Fractional values are rejected.
func (p Params) Int(name string, def int) (int, error) {
	f, err := p.Float(name, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s: want integer, got %v", ErrBadParam, name, f)
	}
	return int(f), nil
}

// Bool returns the named flag, or def when it is absent.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: want bool, got %T", ErrBadParam, name, v)
	}
	return b, nil
}

// Floats reads several numbers at once into the given pointers, keeping the
// current value as the default.
func (p Params) Floats(dst map[string]*float64) error {
	for name, ptr := range dst {
		v, err := p.Float(name, *ptr)
		if err != nil {
			return err
		}
		*ptr = v
	}
	return nil
}

// Vector returns the named list of exactly n numbers. ok is false when the
// parameter is absent.
func (p Params) Vector(name string, n int) (v []float64, ok bool, err error) {
	raw, ok := p[name]
	if !ok {
		return nil, false, nil
	}
	items, isList := raw.([]any)
	if !isList {
		return nil, false, fmt.Errorf("%w: %s: want list, got %T", ErrBadParam, name, raw)
	}
	if err := lenErr(name, len(items), n); err != nil {
		return nil, false, err
	}
	v = make([]float64, n)
	for i, item := range items {
		f, err := Params{name: item}.Float(name, 0)
		if err != nil {
			return nil, false, err
		}
		v[i] = f
	}
	return v, true, nil
}

func lenErr(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s: want %d values, got %d", ErrBadParam, name, want, got)
	}
	return nil
}

// Color returns the named colour given as [r, g, b] or [r, g, b, a] in
// [0, 1], or def when it is absent.
func (p Params) Color(name string, def vfx.Color) (vfx.Color, error) {
	raw, ok := p[name]
	if !ok {
		return def, nil
	}
	n := 4
	if l, isList := raw.([]any); isList && len(l) == 3 {
		n = 3
	}
	v, _, err := p.Vector(name, n)
	if err != nil {
		return def, err
	}
	c := vfx.Color{R: v[0], G: v[1], B: v[2], A: 1}
	if n == 4 {
		c.A = v[3]
	}
	return c, nil
}

// Factory builds one effect from its parameters.
type Factory[I any] func(p Params) (vfx.Effect[I], error)

// Registry maps effect kinds to factories for one backend.
type Registry[I any] struct {
	factories map[string]Factory[I]
}

// NewRegistry creates an empty registry.
func NewRegistry[I any]() *Registry[I] {
	return &Registry[I]{factories: make(map[string]Factory[I])}
}

// Register adds or replaces the factory for kind. Kinds are case-insensitive.
func (r *Registry[I]) Register(kind string, f Factory[I]) {
	r.factories[strings.ToLower(kind)] = f
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry[I]) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// New builds a single effect.
func (r *Registry[I]) New(e EffectSpec) (vfx.Effect[I], error) {
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(e.Kind))]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEffect, e.Kind)
	}
	eff, err := f(e.Params)
	if err != nil {
		return nil, err
	}
	if e.Disabled {
		if t, ok := eff.(interface{ SetEnabled(bool) }); ok {
			t.SetEnabled(false)
		}
	}
	if e.Name != "" {
		eff = named[I]{Effect: eff, name: e.Name}
	}
	return eff, nil
}

// Build creates every effect of s in order. On error nothing is returned.
func (r *Registry[I]) Build(s *Spec) ([]vfx.Effect[I], error) {
	effects := make([]vfx.Effect[I], 0, len(s.Effects))
	for i, e := range s.Effects {
		eff, err := r.New(e)
		if err != nil {
			return nil, fmt.Errorf("chain: effect %d (%s): %w", i, e.Kind, err)
		}
		effects = append(effects, eff)
	}
	return effects, nil
}

// named overrides an effect's name while forwarding its optional
// capabilities.
type named[I any] struct {
	vfx.Effect[I]
	name string
}

func (n named[I]) Name() string { return n.name }

func (n named[I]) Enabled() bool {
	if t, ok := n.Effect.(vfx.Toggler); ok {
		return t.Enabled()
	}
	return true
}

func (n named[I]) SetEnabled(on bool) {
	if t, ok := n.Effect.(interface{ SetEnabled(bool) }); ok {
		t.SetEnabled(on)
	}
}

func (n named[I]) Resize(w, h int) {
	if r, ok := n.Effect.(vfx.Resizer); ok {
		r.Resize(w, h)
	}
}

func (n named[I]) Update(dt float32) {
	if u, ok := n.Effect.(vfx.Updater); ok {
		u.Update(dt)
	}
}

// Unwrap returns the wrapped effect.
func (n named[I]) Unwrap() vfx.Effect[I] { return n.Effect }
