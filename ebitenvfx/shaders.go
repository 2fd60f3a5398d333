package ebitenvfx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// --- Kage shader sources ---
// All shaders use //kage:unit pixels as required by Ebitengine.
// Ebitengine uses premultiplied alpha; shaders un-premultiply before processing
// and re-premultiply output where needed.

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	// Un-premultiply alpha.
	if c.a > 0 {
		c.rgb /= c.a
	}
	// Apply 4x5 color matrix (row-major, offset in elements 4,9,14,19).
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	// Clamp and re-premultiply.
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

const pixelOutlineShaderSrc = `//kage:unit pixels
package main

var OutlineColor vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		return c
	}
	// Check cardinal neighbors.
	if imageSrc0At(src + vec2(1, 0)).a > 0 ||
		imageSrc0At(src + vec2(-1, 0)).a > 0 ||
		imageSrc0At(src + vec2(0, 1)).a > 0 ||
		imageSrc0At(src + vec2(0, -1)).a > 0 {
		return OutlineColor
	}
	return vec4(0)
}
`

const pixelInlineShaderSrc = `//kage:unit pixels
package main

var InlineColor vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return vec4(0)
	}
	// If any cardinal neighbor is transparent, this is an edge pixel.
	if imageSrc0At(src + vec2(1, 0)).a == 0 ||
		imageSrc0At(src + vec2(-1, 0)).a == 0 ||
		imageSrc0At(src + vec2(0, 1)).a == 0 ||
		imageSrc0At(src + vec2(0, -1)).a == 0 {
		return InlineColor
	}
	return c
}
`

const paletteShaderSrc = `//kage:unit pixels
package main

var PaletteSize float
var CycleOffset float
var TexWidth float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return vec4(0)
	}
	c.rgb /= c.a
	lum := 0.299*c.r + 0.587*c.g + 0.114*c.b
	// Map lum [0,1] to index [0,255] with cycle offset.
	idx := lum*(PaletteSize-1.0) + CycleOffset
	idx = mod(idx, PaletteSize)
	// The palette texture is stretched to the source size.
	origin := imageSrc1Origin()
	u := (idx + 0.5) / PaletteSize * TexWidth
	pal := imageSrc1At(origin + vec2(u, 0.5))
	if pal.a > 0 {
		pal.rgb /= pal.a
	}
	// Re-premultiply with original alpha.
	return vec4(pal.rgb*c.a, c.a)
}
`

const thresholdShaderSrc = `//kage:unit pixels
package main

var Threshold float
var Intensity float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return vec4(0)
	}
	rgb := c.rgb / c.a
	lum := 0.299*rgb.r + 0.587*rgb.g + 0.114*rgb.b
	if lum < Threshold {
		return vec4(0)
	}
	return vec4(c.rgb*Intensity, c.a)
}
`

const vignetteShaderSrc = `//kage:unit pixels
package main

var Radius float
var Softness float
var Strength float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	p := (src-imageSrc0Origin())/imageSrc0Size() - 0.5
	d := length(p) / length(vec2(0.5))
	f := 1.0 - Strength*smoothstep(Radius, Radius+Softness, d)
	return vec4(c.rgb*f, c.a)
}
`

const crtShaderSrc = `//kage:unit pixels
package main

var Time float
var Scanlines float
var Curvature float
var Flicker float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	uv := (src - origin) / size
	cc := uv - 0.5
	uv += cc * dot(cc, cc) * Curvature
	if uv.x < 0 || uv.x > 1 || uv.y < 0 || uv.y > 1 {
		return vec4(0)
	}
	c := imageSrc0At(origin + uv*size)
	scan := 0.5 + 0.5*sin(uv.y*size.y*3.14159265)
	c.rgb *= 1.0 - Scanlines*(1.0-scan)
	c.rgb *= 1.0 - Flicker*0.5*(1.0+sin(Time*60.0))
	return c
}
`

const chromaticShaderSrc = `//kage:unit pixels
package main

var Offset float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	center := imageSrc0Origin() + imageSrc0Size()/2
	dir := src - center
	if length(dir) > 0 {
		dir = normalize(dir)
	}
	r := imageSrc0At(src + dir*Offset)
	g := imageSrc0At(src)
	b := imageSrc0At(src - dir*Offset)
	a := max(g.a, max(r.a, b.a))
	return vec4(r.r, g.g, b.b, a)
}
`

const pixelateShaderSrc = `//kage:unit pixels
package main

var CellSize float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	p := floor((src-origin)/CellSize)*CellSize + CellSize/2
	return imageSrc0At(origin + p)
}
`

const motionShaderSrc = `//kage:unit pixels
package main

var Persistence float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return mix(imageSrc0At(src), imageSrc1At(src), Persistence)
}
`

// --- Lazy shader compilation (no sync.Once; Ebitengine draws on one thread) ---

// shaderProgram is a Kage program compiled on first use. A compile failure
// is remembered and returned from every later get.
type shaderProgram struct {
	name   string
	src    string
	shader *ebiten.Shader
	err    error
}

func (p *shaderProgram) get() (*ebiten.Shader, error) {
	if p.shader != nil || p.err != nil {
		return p.shader, p.err
	}
	s, err := ebiten.NewShader([]byte(p.src))
	if err != nil {
		p.err = fmt.Errorf("ebitenvfx: compile %s shader: %w", p.name, err)
		vfx.Logger().Warn("ebitenvfx: shader compile failed", slog.String("shader", p.name), slog.Any("err", err))
		return nil, p.err
	}
	p.shader = s
	return s, nil
}

var (
	colorMatrixShader  = &shaderProgram{name: "color matrix", src: colorMatrixShaderSrc}
	pixelOutlineShader = &shaderProgram{name: "pixel outline", src: pixelOutlineShaderSrc}
	pixelInlineShader  = &shaderProgram{name: "pixel inline", src: pixelInlineShaderSrc}
	paletteShader      = &shaderProgram{name: "palette", src: paletteShaderSrc}
	thresholdShader    = &shaderProgram{name: "bloom threshold", src: thresholdShaderSrc}
	vignetteShader     = &shaderProgram{name: "vignette", src: vignetteShaderSrc}
	crtShader          = &shaderProgram{name: "crt", src: crtShaderSrc}
	chromaticShader    = &shaderProgram{name: "chromatic aberration", src: chromaticShaderSrc}
	pixelateShader     = &shaderProgram{name: "pixelate", src: pixelateShaderSrc}
	motionShader       = &shaderProgram{name: "motion blur", src: motionShaderSrc}
)

var builtinShaders = []*shaderProgram{
	colorMatrixShader, pixelOutlineShader, pixelInlineShader, paletteShader, thresholdShader,
	vignetteShader, crtShader, chromaticShader, pixelateShader, motionShader,
}

// CompileShaders compiles every built-in shader up front instead of on the
// first frame that uses it. It returns all compile errors joined.
func CompileShaders() error {
	var errs []error
	for _, p := range builtinShaders {
		if _, err := p.get(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
