package soft

import (
	"golang.org/x/image/draw"

	"github.com/phanxgames/vfx/chain"
)

// NewRegistry returns a registry of every software effect, for building
// chains loaded with chain.Load.
//
//	passthrough
//	blur, boxblur          radius
//	bloom                  threshold, radius, intensity
//	vignette               radius, softness, strength
//	brightness, contrast,
//	saturation, gamma, hue amount
//	grayscale, sepia,
//	invert, sharpen
//	pixelate               size
//	motionblur             persistence
//	colormatrix            matrix (20 numbers, row-major)
func NewRegistry() *chain.Registry[draw.Image] {
	r := chain.NewRegistry[draw.Image]()
	r.Register("passthrough", func(chain.Params) (Effect, error) { return &Passthrough{}, nil })
	r.Register("blur", func(p chain.Params) (Effect, error) {
		radius, err := p.Float("radius", 2)
		return NewGaussianBlur(radius), err
	})
	r.Register("boxblur", func(p chain.Params) (Effect, error) {
		radius, err := p.Float("radius", 2)
		return NewBoxBlur(radius), err
	})
	r.Register("bloom", func(p chain.Params) (Effect, error) {
		e := NewBloom()
		err := p.Floats(map[string]*float64{
			"threshold": &e.Threshold,
			"radius":    &e.Radius,
			"intensity": &e.Intensity,
		})
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
	for kind, adj := range map[string]Adjustment{
		"brightness": AdjustBrightness,
		"contrast":   AdjustContrast,
		"saturation": AdjustSaturation,
		"gamma":      AdjustGamma,
		"hue":        AdjustHue,
	} {
		def := 0.0
		if adj == AdjustGamma {
			def = 1
		}
		r.Register(kind, func(p chain.Params) (Effect, error) {
			amount, err := p.Float("amount", def)
			return NewAdjust(adj, amount), err
		})
	}
	for kind, f := range map[string]Filter{
		"grayscale": FilterGrayscale,
		"sepia":     FilterSepia,
		"invert":    FilterInvert,
		"sharpen":   FilterSharpen,
	} {
		r.Register(kind, func(chain.Params) (Effect, error) { return NewSimple(f), nil })
	}
	r.Register("pixelate", func(p chain.Params) (Effect, error) {
		size, err := p.Int("size", 4)
		return NewPixelate(size), err
	})
	r.Register("motionblur", func(p chain.Params) (Effect, error) {
		persistence, err := p.Float("persistence", 0.5)
		return NewMotionBlur(persistence), err
	})
	r.Register("colormatrix", func(p chain.Params) (Effect, error) {
		e := NewColorMatrix()
		m, ok, err := p.Vector("matrix", 20)
		if ok {
			copy(e.Matrix[:], m)
		}
		return e, err
	})
	return r
}
