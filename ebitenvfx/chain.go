package ebitenvfx

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
	"github.com/phanxgames/vfx/chain"
)

// NewRegistry returns a registry of the built-in shader effects, for
// building chains loaded with chain.Load. Kinds and their parameters:
//
//	passthrough
//	blur                   radius
//	bloom                  threshold, intensity, radius
//	vignette               radius, softness, strength
//	colormatrix            matrix (20 numbers, row-major)
//	brightness, contrast,
//	saturation             amount
//	grayscale, sepia,
//	invert
//	crt                    scanlines, curvature, flicker
//	chromatic              offset
//	pixelate               size
//	outline                thickness, color
//	pixeloutline,
//	pixelinline            color
//	palette                cyclespeed
//	motionblur             persistence
func NewRegistry() *chain.Registry[*ebiten.Image] {
	r := chain.NewRegistry[*ebiten.Image]()
	r.Register("passthrough", func(chain.Params) (Effect, error) { return NewPassthrough(), nil })
	r.Register("blur", func(p chain.Params) (Effect, error) {
		radius, err := p.Int("radius", 4)
		return NewBlur(radius), err
	})
	r.Register("bloom", func(p chain.Params) (Effect, error) {
		e := NewBloom()
		if err := p.Floats(map[string]*float64{
			"threshold": &e.Threshold,
			"intensity": &e.Intensity,
		}); err != nil {
			return nil, err
		}
		radius, err := p.Int("radius", e.Radius)
		e.Radius = radius
		return e, err
	})
	r.Register("vignette", func(p chain.Params) (Effect, error) {
		e := NewVignette()
		err := p.Floats(map[string]*float64{
			"radius":   &e.Radius,
			"softness": &e.Softness,
			"strength": &e.Strength,
		})
		return e, err
	})
	r.Register("colormatrix", func(p chain.Params) (Effect, error) {
		e := NewColorMatrix()
		m, ok, err := p.Vector("matrix", 20)
		if ok {
			copy(e.Matrix[:], m)
		}
		return e, err
	})
	for kind, preset := range map[string]struct {
		def float64
		set func(*ColorMatrix, float64)
	}{
		"brightness": {0, (*ColorMatrix).SetBrightness},
		"contrast":   {1, (*ColorMatrix).SetContrast},
		"saturation": {1, (*ColorMatrix).SetSaturation},
	} {
		r.Register(kind, func(p chain.Params) (Effect, error) {
			amount, err := p.Float("amount", preset.def)
			e := NewColorMatrix()
			preset.set(e, amount)
			return e, err
		})
	}
	r.Register("grayscale", func(chain.Params) (Effect, error) {
		e := NewColorMatrix()
		e.SetSaturation(0)
		return e, nil
	})
	r.Register("sepia", func(chain.Params) (Effect, error) {
		e := NewColorMatrix()
		e.SetSepia()
		return e, nil
	})
	r.Register("invert", func(chain.Params) (Effect, error) {
		e := NewColorMatrix()
		e.SetInvert()
		return e, nil
	})
	r.Register("crt", func(p chain.Params) (Effect, error) {
		e := NewCRT()
		err := p.Floats(map[string]*float64{
			"scanlines": &e.Scanlines,
			"curvature": &e.Curvature,
			"flicker":   &e.Flicker,
		})
		return e, err
	})
	r.Register("chromatic", func(p chain.Params) (Effect, error) {
		offset, err := p.Float("offset", 2)
		return NewChromaticAberration(offset), err
	})
	r.Register("pixelate", func(p chain.Params) (Effect, error) {
		size, err := p.Int("size", 4)
		return NewPixelate(size), err
	})
	r.Register("outline", func(p chain.Params) (Effect, error) {
		thickness, err := p.Int("thickness", 1)
		if err != nil {
			return nil, err
		}
		c, err := p.Color("color", vfx.ColorWhite)
		return NewOutline(thickness, c), err
	})
	r.Register("pixeloutline", func(p chain.Params) (Effect, error) {
		c, err := p.Color("color", vfx.ColorWhite)
		return NewPixelOutline(c), err
	})
	r.Register("pixelinline", func(p chain.Params) (Effect, error) {
		c, err := p.Color("color", vfx.ColorWhite)
		return NewPixelInline(c), err
	})
	r.Register("palette", func(p chain.Params) (Effect, error) {
		e := NewPalette()
		speed, err := p.Float("cyclespeed", 0)
		e.CycleSpeed = speed
		return e, err
	})
	r.Register("motionblur", func(p chain.Params) (Effect, error) {
		persistence, err := p.Float("persistence", 0.5)
		return NewMotionBlur(persistence), err
	})
	return r
}
