package soft

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"

	"github.com/phanxgames/vfx"
)

// Effect is a CPU effect over draw.Image buffers.
type Effect = vfx.Effect[draw.Image]

// output writes img into dst. bild returns fresh *image.RGBA results.
func output(dst draw.Image, img *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
}

// --- Passthrough ---

// Passthrough copies its input unchanged.
type Passthrough struct {
	vfx.Toggle
}

// Apply copies src into dst.
func (e *Passthrough) Apply(src, dst draw.Image) error {
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return nil
}

// --- Blur ---

// GaussianBlur blurs with a Gaussian kernel of the given radius in pixels.
type GaussianBlur struct {
	vfx.Toggle
	Radius float64
}

// NewGaussianBlur creates a Gaussian blur.
func NewGaussianBlur(radius float64) *GaussianBlur { return &GaussianBlur{Radius: radius} }

// Apply blurs src into dst. A non-positive radius copies.
func (e *GaussianBlur) Apply(src, dst draw.Image) error {
	output(dst, blur.Gaussian(src, math.Max(e.Radius, 0)))
	return nil
}

// BoxBlur blurs with a box kernel.
type BoxBlur struct {
	vfx.Toggle
	Radius float64
}

// NewBoxBlur creates a box blur.
func NewBoxBlur(radius float64) *BoxBlur { return &BoxBlur{Radius: radius} }

// Apply blurs src into dst.
func (e *BoxBlur) Apply(src, dst draw.Image) error {
	output(dst, blur.Box(src, math.Max(e.Radius, 0)))
	return nil
}

// --- Colour adjustments ---

// Adjustment selects which colour property an Adjust effect changes.
type Adjustment uint8

const (
	AdjustBrightness Adjustment = iota // Amount in [-1, 1]
	AdjustContrast                     // Amount in [-1, 1]
	AdjustSaturation                   // Amount in [-1, 1]
	AdjustGamma                        // Amount > 0, 1 is neutral
	AdjustHue                          // Amount in degrees
)

// Adjust applies a single colour adjustment.
type Adjust struct {
	vfx.Toggle
	Kind   Adjustment
	Amount float64
}

// NewAdjust creates a colour adjustment.
func NewAdjust(kind Adjustment, amount float64) *Adjust {
	return &Adjust{Kind: kind, Amount: amount}
}

// Apply adjusts src into dst.
func (e *Adjust) Apply(src, dst draw.Image) error {
	var out *image.RGBA
	switch e.Kind {
	case AdjustBrightness:
		out = adjust.Brightness(src, e.Amount)
	case AdjustContrast:
		out = adjust.Contrast(src, e.Amount)
	case AdjustSaturation:
		out = adjust.Saturation(src, e.Amount)
	case AdjustGamma:
		g := e.Amount
		if g <= 0 {
			g = 1
		}
		out = adjust.Gamma(src, g)
	case AdjustHue:
		out = adjust.Hue(src, int(e.Amount))
	default:
		out = clone.AsRGBA(src)
	}
	output(dst, out)
	return nil
}

// Filter selects a parameterless image filter.
type Filter uint8

const (
	FilterGrayscale Filter = iota
	FilterSepia
	FilterInvert
	FilterSharpen
)

// Simple applies a parameterless filter.
type Simple struct {
	vfx.Toggle
	Filter Filter
}

// NewSimple creates a parameterless filter effect.
func NewSimple(f Filter) *Simple { return &Simple{Filter: f} }

// Apply filters src into dst.
func (e *Simple) Apply(src, dst draw.Image) error {
	var out *image.RGBA
	switch e.Filter {
	case FilterGrayscale:
		// effect.Grayscale returns an opaque *image.Gray; keep alpha instead.
		out = adjust.Apply(src, func(c color.RGBA) color.RGBA {
			l := uint8(luminance(c)*255 + 0.5)
			return color.RGBA{l, l, l, c.A}
		})
	case FilterSepia:
		out = effect.Sepia(src)
	case FilterInvert:
		out = effect.Invert(src)
	case FilterSharpen:
		out = effect.Sharpen(src)
	default:
		out = clone.AsRGBA(src)
	}
	output(dst, out)
	return nil
}

// ColorMatrix applies a 4x5 colour matrix in row-major order:
// [R_r, R_g, R_b, R_a, R_offset, G_r, ...]. Offsets are in [0, 1] units.
type ColorMatrix struct {
	vfx.Toggle
	Matrix [20]float64
}

// NewColorMatrix creates an identity colour matrix.
func NewColorMatrix() *ColorMatrix {
	return &ColorMatrix{Matrix: [20]float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// Apply transforms every pixel of src into dst.
func (e *ColorMatrix) Apply(src, dst draw.Image) error {
	m := e.Matrix
	out := adjust.Apply(src, func(c color.RGBA) color.RGBA {
		r, g, b, a := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255
		// The matrix works on straight alpha.
		if a > 0 {
			r, g, b = r/a, g/a, b/a
		}
		na := clamp01(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
		return color.RGBA{
			R: unit8(clamp01(m[0]*r+m[1]*g+m[2]*b+m[3]*a+m[4]) * na),
			G: unit8(clamp01(m[5]*r+m[6]*g+m[7]*b+m[8]*a+m[9]) * na),
			B: unit8(clamp01(m[10]*r+m[11]*g+m[12]*b+m[13]*a+m[14]) * na),
			A: unit8(na),
		}
	})
	output(dst, out)
	return nil
}

// --- Bloom ---

// Bloom adds a blurred copy of the bright areas back over the image.
type Bloom struct {
	vfx.Toggle
	// Threshold is the luminance in [0, 1] above which pixels glow.
	Threshold float64
	// Radius is the glow blur radius in pixels.
	Radius float64
	// Intensity scales the glow before it is added.
	Intensity float64
}

// NewBloom creates a bloom with moderate defaults.
func NewBloom() *Bloom { return &Bloom{Threshold: 0.7, Radius: 6, Intensity: 1} }

// Apply renders the bloom of src into dst.
func (e *Bloom) Apply(src, dst draw.Image) error {
	t, k := e.Threshold, e.Intensity
	bright := adjust.Apply(src, func(c color.RGBA) color.RGBA {
		if luminance(c) < t {
			return color.RGBA{}
		}
		return color.RGBA{
			R: unit8(float64(c.R) / 255 * k),
			G: unit8(float64(c.G) / 255 * k),
			B: unit8(float64(c.B) / 255 * k),
			A: c.A,
		}
	})
	glow := blur.Gaussian(bright, math.Max(e.Radius, 0))
	output(dst, blend.Add(src, glow))
	return nil
}

// --- Vignette ---

// Vignette darkens the image towards its corners.
type Vignette struct {
	vfx.Toggle
	// Radius is the normalised distance from the centre where darkening starts.
	Radius float64
	// Softness is the width of the falloff.
	Softness float64
	// Strength is how dark the corners get, in [0, 1].
	Strength float64
}

// NewVignette creates a vignette with moderate defaults.
func NewVignette() *Vignette { return &Vignette{Radius: 0.5, Softness: 0.5, Strength: 0.8} }

// Apply renders the vignetted src into dst.
func (e *Vignette) Apply(src, dst draw.Image) error {
	out := clone.AsRGBA(src)
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	norm := math.Hypot(cx, cy)
	if norm == 0 {
		output(dst, out)
		return nil
	}
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / norm
				f := 1 - e.Strength*smoothstep(e.Radius, e.Radius+e.Softness, d)
				i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
				out.Pix[i+0] = uint8(float64(out.Pix[i+0]) * f)
				out.Pix[i+1] = uint8(float64(out.Pix[i+1]) * f)
				out.Pix[i+2] = uint8(float64(out.Pix[i+2]) * f)
			}
		}
	})
	output(dst, out)
	return nil
}

// --- Pixelate ---

// Pixelate reduces the image to square cells of Size pixels.
type Pixelate struct {
	vfx.Toggle
	Size int
}

// NewPixelate creates a pixelate effect.
func NewPixelate(size int) *Pixelate { return &Pixelate{Size: size} }

// Apply pixelates src into dst.
func (e *Pixelate) Apply(src, dst draw.Image) error {
	b := src.Bounds()
	if e.Size <= 1 {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return nil
	}
	sw := max(1, (b.Dx()+e.Size-1)/e.Size)
	sh := max(1, (b.Dy()+e.Size-1)/e.Size)
	small := transform.Resize(src, sw, sh, transform.Box)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return nil
}

// --- MotionBlur ---

// MotionBlur blends each frame with an accumulated history image, leaving
// trails behind moving content. The history is owned by the effect, so the
// pipeline clearing its work buffers between frames does not affect it.
type MotionBlur struct {
	vfx.Toggle
	// Persistence in [0, 1) is the weight of the history; 0 disables trails.
	Persistence float64

	history *image.RGBA
}

// NewMotionBlur creates a motion blur.
func NewMotionBlur(persistence float64) *MotionBlur {
	return &MotionBlur{Persistence: persistence}
}

// Apply blends src with the history into dst and keeps the result.
func (e *MotionBlur) Apply(src, dst draw.Image) error {
	if e.history == nil || e.history.Bounds().Size() != src.Bounds().Size() {
		e.history = clone.AsRGBA(src)
		output(dst, e.history)
		return nil
	}
	p := math.Min(math.Max(e.Persistence, 0), 1)
	cur := clone.AsRGBA(src)
	hist := e.history
	parallel.Line(len(cur.Pix)/4, func(start, end int) {
		for i := start * 4; i < end*4; i++ {
			cur.Pix[i] = uint8(float64(cur.Pix[i])*(1-p) + float64(hist.Pix[i])*p + 0.5)
		}
	})
	e.history = cur
	output(dst, cur)
	return nil
}

// Resize discards the history.
func (e *MotionBlur) Resize(int, int) { e.history = nil }

// Reset discards the history.
func (e *MotionBlur) Reset() { e.history = nil }

func luminance(c color.RGBA) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

func smoothstep(e0, e1, x float64) float64 {
	if e1 <= e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := math.Min(math.Max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 { return math.Min(math.Max(v, 0), 1) }

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
