package ebitenvfx

import (
	"errors"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// drawShader runs shader over the full size of src into dst.
func drawShader(dst, src *ebiten.Image, p *shaderProgram, op *ebiten.DrawRectShaderOptions, uniforms map[string]any) error {
	shader, err := p.get()
	if err != nil {
		return err
	}
	b := src.Bounds()
	op.Images[0] = src
	op.Uniforms = uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, op)
	return nil
}

// copyImage replaces dst's pixels with src.
func copyImage(dst, src *ebiten.Image, op *ebiten.DrawImageOptions) {
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.Filter = ebiten.FilterNearest
	op.Blend = ebiten.BlendCopy
	dst.DrawImage(src, op)
}

// scratch returns img when it already matches w x h, otherwise a new
// cleared image, deallocating the old one.
func scratch(img *ebiten.Image, w, h int) *ebiten.Image {
	if img != nil {
		b := img.Bounds()
		if b.Dx() == w && b.Dy() == h {
			img.Clear()
			return img
		}
		img.Deallocate()
	}
	return ebiten.NewImage(w, h)
}

// --- Passthrough ---

// Passthrough copies its input unchanged.
type Passthrough struct {
	vfx.Toggle
	op ebiten.DrawImageOptions
}

// NewPassthrough creates a passthrough effect.
func NewPassthrough() *Passthrough { return &Passthrough{} }

// Apply copies src into dst.
func (f *Passthrough) Apply(src, dst *ebiten.Image) error {
	copyImage(dst, src, &f.op)
	return nil
}

// --- ColorMatrix ---

// ColorMatrix applies a 4x5 color matrix transformation using a Kage shader.
// The matrix is stored in row-major order: [R_r, R_g, R_b, R_a, R_offset, G_r, ...].
type ColorMatrix struct {
	vfx.Toggle
	Matrix      [20]float64
	uniforms    map[string]any
	matrixF32   [20]float32 // persistent buffer to avoid per-frame slice escape
	matrixSlice []float32   // persistent slice header pointing into matrixF32
	shaderOp    ebiten.DrawRectShaderOptions
}

// NewColorMatrix creates a color matrix effect initialized to the identity.
func NewColorMatrix() *ColorMatrix {
	f := &ColorMatrix{
		uniforms: make(map[string]any, 1),
	}
	f.matrixSlice = f.matrixF32[:]
	f.uniforms["Matrix"] = f.matrixSlice
	f.Reset()
	return f
}

// Reset restores the identity matrix.
func (f *ColorMatrix) Reset() {
	f.Matrix = [20]float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SetBrightness sets the matrix to adjust brightness by the given offset [-1, 1].
func (f *ColorMatrix) SetBrightness(b float64) {
	f.Matrix = [20]float64{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// SetContrast sets the matrix to adjust contrast. c=1 is normal, 0=gray, >1 is higher.
func (f *ColorMatrix) SetContrast(c float64) {
	t := (1.0 - c) / 2.0
	f.Matrix = [20]float64{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SetSaturation sets the matrix to adjust saturation. s=1 is normal, 0=grayscale.
func (f *ColorMatrix) SetSaturation(s float64) {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	f.Matrix = [20]float64{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SetInvert sets the matrix to invert the colour channels.
func (f *ColorMatrix) SetInvert() {
	f.Matrix = [20]float64{
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	}
}

// SetSepia sets the classic sepia tone matrix.
func (f *ColorMatrix) SetSepia() {
	f.Matrix = [20]float64{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Apply renders the color matrix transformation from src into dst.
func (f *ColorMatrix) Apply(src, dst *ebiten.Image) error {
	// Convert [20]float64 to [20]float32 in-place (no allocation; matrixSlice
	// already points into matrixF32 and is pre-stored in the uniforms map).
	for i, v := range f.Matrix {
		f.matrixF32[i] = float32(v)
	}
	return drawShader(dst, src, colorMatrixShader, &f.shaderOp, f.uniforms)
}

// --- Blur ---

// Blur applies a Kawase iterative blur using downscale/upscale passes.
// No Kage shader needed; bilinear filtering during DrawImage does the work.
type Blur struct {
	vfx.Toggle
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlur creates a blur with the given radius (in pixels).
func NewBlur(radius int) *Blur {
	if radius < 0 {
		radius = 0
	}
	return &Blur{Radius: radius}
}

// Apply renders a Kawase blur from src into dst using iterative downscale/upscale.
func (f *Blur) Apply(src, dst *ebiten.Image) error {
	if f.Radius <= 0 {
		copyImage(dst, src, &f.imgOp)
		return nil
	}

	// Number of iterations: log2(radius), minimum 1.
	passes := max(int(math.Ceil(math.Log2(float64(f.Radius)))), 1)

	srcBounds := src.Bounds()
	w, h := srcBounds.Dx(), srcBounds.Dy()

	// The downscale chain is reused for the upscale passes.
	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	// Deallocate excess temp images from a previous larger radius.
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	op := &f.imgOp
	op.Blend = ebiten.BlendSourceOver
	op.Filter = ebiten.FilterLinear

	// Downscale passes: each half-size.
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		f.temps[i] = scratch(f.temps[i], w, h)
		scaleInto(f.temps[i], current, op)
		current = f.temps[i]
	}

	// Upscale passes: draw each back up.
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		scaleInto(f.temps[i], current, op)
		current = f.temps[i]
	}

	// Final upscale to dst.
	scaleInto(dst, current, op)
	return nil
}

// scaleInto draws src stretched over all of dst.
func scaleInto(dst, src *ebiten.Image, op *ebiten.DrawImageOptions) {
	op.GeoM.Reset()
	op.ColorScale.Reset()
	sb, db := src.Bounds(), dst.Bounds()
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	dst.DrawImage(src, op)
}

// Dispose frees the intermediate images.
func (f *Blur) Dispose() {
	for i, t := range f.temps {
		if t != nil {
			t.Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:0]
}

// --- Bloom ---

// Bloom extracts pixels brighter than Threshold, blurs them, and adds the
// glow back over the source.
type Bloom struct {
	vfx.Toggle
	// Threshold is the luminance in [0, 1] above which pixels glow.
	Threshold float64
	// Intensity scales the glow.
	Intensity float64
	// Radius is the glow blur radius in pixels.
	Radius int

	bright   *ebiten.Image
	glow     *ebiten.Image
	blur     Blur
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
	imgOp    ebiten.DrawImageOptions
}

// NewBloom creates a bloom with moderate defaults.
func NewBloom() *Bloom {
	return &Bloom{Threshold: 0.7, Intensity: 1, Radius: 8, uniforms: make(map[string]any, 2)}
}

// Apply renders the bloom of src into dst.
func (f *Bloom) Apply(src, dst *ebiten.Image) error {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	f.bright = scratch(f.bright, w, h)
	f.glow = scratch(f.glow, w, h)

	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 2)
	}
	f.uniforms["Threshold"] = float32(f.Threshold)
	f.uniforms["Intensity"] = float32(f.Intensity)
	if err := drawShader(f.bright, src, thresholdShader, &f.shaderOp, f.uniforms); err != nil {
		return err
	}
	f.blur.Radius = f.Radius
	if err := f.blur.Apply(f.bright, f.glow); err != nil {
		return err
	}

	copyImage(dst, src, &f.imgOp)
	f.imgOp.Blend = ebiten.BlendLighter
	dst.DrawImage(f.glow, &f.imgOp)
	return nil
}

// Resize drops the intermediate images; they are recreated at the new size.
func (f *Bloom) Resize(int, int) { f.Dispose() }

// Dispose frees the intermediate images.
func (f *Bloom) Dispose() {
	if f.bright != nil {
		f.bright.Deallocate()
		f.bright = nil
	}
	if f.glow != nil {
		f.glow.Deallocate()
		f.glow = nil
	}
	f.blur.Dispose()
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
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
}

// NewVignette creates a vignette with moderate defaults.
func NewVignette() *Vignette {
	return &Vignette{Radius: 0.5, Softness: 0.5, Strength: 0.8, uniforms: make(map[string]any, 3)}
}

// Apply renders the vignetted src into dst.
func (f *Vignette) Apply(src, dst *ebiten.Image) error {
	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 3)
	}
	f.uniforms["Radius"] = float32(f.Radius)
	f.uniforms["Softness"] = float32(f.Softness)
	f.uniforms["Strength"] = float32(f.Strength)
	return drawShader(dst, src, vignetteShader, &f.shaderOp, f.uniforms)
}

// --- CRT ---

// CRT simulates a curved cathode-ray screen with scanlines and flicker.
type CRT struct {
	vfx.Toggle
	// Scanlines is the darkening of the gaps between lines, in [0, 1].
	Scanlines float64
	// Curvature bends the image; 0 is flat.
	Curvature float64
	// Flicker is the brightness flicker amplitude, in [0, 1].
	Flicker float64
	// Time drives the flicker; Update advances it.
	Time     float64
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
}

// NewCRT creates a CRT effect with moderate defaults.
func NewCRT() *CRT {
	return &CRT{Scanlines: 0.35, Curvature: 0.1, Flicker: 0.03, uniforms: make(map[string]any, 4)}
}

// Update advances the flicker clock.
func (f *CRT) Update(dt float32) { f.Time += float64(dt) }

// Apply renders src through the CRT simulation into dst.
func (f *CRT) Apply(src, dst *ebiten.Image) error {
	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 4)
	}
	f.uniforms["Time"] = float32(f.Time)
	f.uniforms["Scanlines"] = float32(f.Scanlines)
	f.uniforms["Curvature"] = float32(f.Curvature)
	f.uniforms["Flicker"] = float32(f.Flicker)
	return drawShader(dst, src, crtShader, &f.shaderOp, f.uniforms)
}

// --- ChromaticAberration ---

// ChromaticAberration splits the red and blue channels radially by Offset
// pixels.
type ChromaticAberration struct {
	vfx.Toggle
	Offset   float64
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
}

// NewChromaticAberration creates a chromatic aberration effect.
func NewChromaticAberration(offset float64) *ChromaticAberration {
	return &ChromaticAberration{Offset: offset, uniforms: make(map[string]any, 1)}
}

// Apply renders the channel split of src into dst.
func (f *ChromaticAberration) Apply(src, dst *ebiten.Image) error {
	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 1)
	}
	f.uniforms["Offset"] = float32(f.Offset)
	return drawShader(dst, src, chromaticShader, &f.shaderOp, f.uniforms)
}

// --- Pixelate ---

// Pixelate reduces the image to square cells of Size pixels.
type Pixelate struct {
	vfx.Toggle
	Size     int
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
	imgOp    ebiten.DrawImageOptions
}

// NewPixelate creates a pixelate effect.
func NewPixelate(size int) *Pixelate {
	return &Pixelate{Size: size, uniforms: make(map[string]any, 1)}
}

// Apply pixelates src into dst. A Size of 1 or less copies.
func (f *Pixelate) Apply(src, dst *ebiten.Image) error {
	if f.Size <= 1 {
		copyImage(dst, src, &f.imgOp)
		return nil
	}
	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 1)
	}
	f.uniforms["CellSize"] = float32(f.Size)
	return drawShader(dst, src, pixelateShader, &f.shaderOp, f.uniforms)
}

// --- Outline ---

// Outline draws the source in 8 cardinal/diagonal offsets with the outline
// color, then draws the original on top. Suited to layers captured over a
// transparent background.
type Outline struct {
	vfx.Toggle
	Thickness int
	Color     vfx.Color
	imgOp     ebiten.DrawImageOptions
}

// NewOutline creates an outline effect.
func NewOutline(thickness int, c vfx.Color) *Outline {
	return &Outline{Thickness: thickness, Color: c}
}

// Apply draws an 8-direction offset outline behind the source image.
func (f *Outline) Apply(src, dst *ebiten.Image) error {
	t := float64(f.Thickness)
	offsets := [8][2]float64{
		{-t, 0}, {t, 0}, {0, -t}, {0, t},
		{-t, -t}, {t, -t}, {-t, t}, {t, t},
	}

	op := &f.imgOp
	op.Blend = ebiten.BlendSourceOver
	op.Filter = ebiten.FilterNearest
	p := f.Color.Premultiplied()

	// Draw outline passes: tint the source with the outline color.
	for _, off := range offsets {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.GeoM.Translate(off[0], off[1])
		op.ColorScale.Scale(p[0], p[1], p[2], p[3])
		dst.DrawImage(src, op)
	}

	// Draw original on top.
	op.GeoM.Reset()
	op.ColorScale.Reset()
	dst.DrawImage(src, op)
	return nil
}

// --- PixelOutline ---

// PixelOutline uses a Kage shader to draw a 1-pixel outline around
// non-transparent pixels by testing cardinal neighbors.
type PixelOutline struct {
	vfx.Toggle
	Color      vfx.Color
	uniforms   map[string]any
	colorF32   [4]float32 // persistent buffer
	colorSlice []float32  // persistent slice header
	shaderOp   ebiten.DrawRectShaderOptions
}

// NewPixelOutline creates a pixel-perfect outline effect.
func NewPixelOutline(c vfx.Color) *PixelOutline {
	f := &PixelOutline{
		Color:    c,
		uniforms: make(map[string]any, 1),
	}
	f.colorSlice = f.colorF32[:]
	f.uniforms["OutlineColor"] = f.colorSlice
	return f
}

// Apply renders a 1-pixel outline via a Kage shader testing cardinal neighbors.
func (f *PixelOutline) Apply(src, dst *ebiten.Image) error {
	f.colorF32 = f.Color.Premultiplied()
	return drawShader(dst, src, pixelOutlineShader, &f.shaderOp, f.uniforms)
}

// --- PixelInline ---

// PixelInline uses a Kage shader to recolor edge pixels that border
// transparent areas.
type PixelInline struct {
	vfx.Toggle
	Color      vfx.Color
	uniforms   map[string]any
	colorF32   [4]float32 // persistent buffer
	colorSlice []float32  // persistent slice header
	shaderOp   ebiten.DrawRectShaderOptions
}

// NewPixelInline creates a pixel-perfect inline effect.
func NewPixelInline(c vfx.Color) *PixelInline {
	f := &PixelInline{
		Color:    c,
		uniforms: make(map[string]any, 1),
	}
	f.colorSlice = f.colorF32[:]
	f.uniforms["InlineColor"] = f.colorSlice
	return f
}

// Apply recolors edge pixels that border transparent areas via a Kage shader.
func (f *PixelInline) Apply(src, dst *ebiten.Image) error {
	f.colorF32 = f.Color.Premultiplied()
	return drawShader(dst, src, pixelInlineShader, &f.shaderOp, f.uniforms)
}

// --- Palette ---

// Palette remaps pixel colors through a 256-entry color palette based on
// luminance. CycleSpeed animates the palette through Update.
type Palette struct {
	vfx.Toggle
	Palette     [256]vfx.Color
	CycleOffset float64
	// CycleSpeed is the palette entries advanced per second.
	CycleSpeed   float64
	paletteTex   *ebiten.Image
	paletteDirty bool
	texW, texH   int // current palette texture dimensions
	uniforms     map[string]any
	shaderOp     ebiten.DrawRectShaderOptions
	pixBuf       []byte // grows to match source dimensions
}

// NewPalette creates a palette effect with a default grayscale palette.
func NewPalette() *Palette {
	f := &Palette{
		paletteDirty: true,
		uniforms:     make(map[string]any, 3),
	}
	// Scalar float32 boxing is unavoidable with Ebitengine's uniform API.
	f.uniforms["PaletteSize"] = float32(256)
	for i := 0; i < 256; i++ {
		v := float64(i) / 255.0
		f.Palette[i] = vfx.Color{R: v, G: v, B: v, A: 1}
	}
	return f
}

// SetPalette sets the palette colors and marks the texture for rebuild.
func (f *Palette) SetPalette(palette [256]vfx.Color) {
	f.Palette = palette
	f.paletteDirty = true
}

// Update advances the cycle offset by CycleSpeed.
func (f *Palette) Update(dt float32) {
	if f.CycleSpeed != 0 {
		f.CycleOffset = math.Mod(f.CycleOffset+f.CycleSpeed*float64(dt), 256)
	}
}

// ensurePaletteTex rebuilds the palette texture to match the given dimensions.
// DrawRectShader requires all source images to have the same size, so the
// palette data is scaled across the full texture width.
func (f *Palette) ensurePaletteTex(w, h int) {
	sizeChanged := f.texW != w || f.texH != h
	if !f.paletteDirty && !sizeChanged && f.paletteTex != nil {
		return
	}
	if f.paletteTex == nil || sizeChanged {
		if f.paletteTex != nil {
			f.paletteTex.Deallocate()
		}
		f.paletteTex = ebiten.NewImage(w, h)
		f.texW = w
		f.texH = h
	}
	f.pixBuf = paletteRows(f.pixBuf, &f.Palette, w, h)
	f.paletteTex.WritePixels(f.pixBuf)
	f.paletteDirty = false
}

// paletteRows fills buf with the palette stretched across w pixels, repeated
// for h rows, as premultiplied RGBA.
func paletteRows(buf []byte, palette *[256]vfx.Color, w, h int) []byte {
	needed := w * h * 4
	if cap(buf) < needed {
		buf = make([]byte, needed)
	} else {
		buf = buf[:needed]
	}
	for x := 0; x < w; x++ {
		idx := min(int((float64(x)+0.5)*256.0/float64(w)), 255)
		c := palette[idx].RGBA()
		buf[x*4+0] = c.R
		buf[x*4+1] = c.G
		buf[x*4+2] = c.B
		buf[x*4+3] = c.A
	}
	for row := 1; row < h; row++ {
		copy(buf[row*w*4:(row+1)*w*4], buf[:w*4])
	}
	return buf
}

// Apply remaps pixel colors through the palette based on luminance.
func (f *Palette) Apply(src, dst *ebiten.Image) error {
	shader, err := paletteShader.get()
	if err != nil {
		return err
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	f.ensurePaletteTex(w, h)
	f.uniforms["CycleOffset"] = float32(f.CycleOffset)
	f.uniforms["TexWidth"] = float32(w)
	f.shaderOp.Images[0] = src
	f.shaderOp.Images[1] = f.paletteTex
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(w, h, shader, &f.shaderOp)
	return nil
}

// Dispose frees the palette texture.
func (f *Palette) Dispose() {
	if f.paletteTex != nil {
		f.paletteTex.Deallocate()
		f.paletteTex = nil
		f.texW, f.texH = 0, 0
	}
}

// --- CustomShader ---

var errNilShader = errors.New("ebitenvfx: custom shader is nil")

// CustomShader wraps a user-provided Kage shader, exposing Ebitengine's
// shader system directly. Images[0] is auto-filled with the source texture;
// the user may set Images[1] and Images[2] for additional textures of the
// same size.
type CustomShader struct {
	vfx.Toggle
	Shader   *ebiten.Shader
	Uniforms map[string]any
	Images   [3]*ebiten.Image
	shaderOp ebiten.DrawRectShaderOptions
}

// NewCustomShader creates a custom shader effect.
func NewCustomShader(shader *ebiten.Shader) *CustomShader {
	return &CustomShader{
		Shader:   shader,
		Uniforms: make(map[string]any),
	}
}

// Apply runs the user-provided Kage shader with src as Images[0].
func (f *CustomShader) Apply(src, dst *ebiten.Image) error {
	if f.Shader == nil {
		return errNilShader
	}
	bounds := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Images[1] = f.Images[1]
	f.shaderOp.Images[2] = f.Images[2]
	f.shaderOp.Uniforms = f.Uniforms
	dst.DrawRectShader(bounds.Dx(), bounds.Dy(), f.Shader, &f.shaderOp)
	return nil
}

// --- MotionBlur ---

// MotionBlur blends each frame with an accumulated history image, leaving
// trails behind moving content. The history belongs to the effect, so the
// pipeline clearing its work buffers between frames leaves it intact.
type MotionBlur struct {
	vfx.Toggle
	// Persistence in [0, 1) is the weight of the history; 0 disables trails.
	Persistence float64
	history     *ebiten.Image
	uniforms    map[string]any
	shaderOp    ebiten.DrawRectShaderOptions
	imgOp       ebiten.DrawImageOptions
}

// NewMotionBlur creates a motion blur.
func NewMotionBlur(persistence float64) *MotionBlur {
	return &MotionBlur{Persistence: persistence, uniforms: make(map[string]any, 1)}
}

// Apply blends src with the history into dst and keeps the result.
func (f *MotionBlur) Apply(src, dst *ebiten.Image) error {
	b := src.Bounds()
	if f.history == nil || f.history.Bounds().Size() != b.Size() {
		f.Reset()
		f.history = ebiten.NewImage(b.Dx(), b.Dy())
		copyImage(f.history, src, &f.imgOp)
		copyImage(dst, src, &f.imgOp)
		return nil
	}
	shader, err := motionShader.get()
	if err != nil {
		return err
	}
	if f.uniforms == nil {
		f.uniforms = make(map[string]any, 1)
	}
	f.uniforms["Persistence"] = float32(math.Min(math.Max(f.Persistence, 0), 1))
	f.shaderOp.Images[0] = src
	f.shaderOp.Images[1] = f.history
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
	copyImage(f.history, dst, &f.imgOp)
	return nil
}

// Resize discards the history.
func (f *MotionBlur) Resize(int, int) { f.Reset() }

// Reset discards the history.
func (f *MotionBlur) Reset() {
	if f.history != nil {
		f.history.Deallocate()
		f.history = nil
	}
}

// Dispose frees the history image.
func (f *MotionBlur) Dispose() { f.Reset() }
