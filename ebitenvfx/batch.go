package ebitenvfx

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// BlendMode selects a compositing operation. Each maps to a specific
// ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendErase                     // destination-out (punch transparent holes)
	BlendNone                      // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendNormal:
		return ebiten.BlendSourceOver
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendErase:
		return ebiten.BlendDestinationOut
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// white pixel singleton for solid rectangles (no sync.Once; all drawing
// happens on Ebitengine's render thread)
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

// spriteCommand is one queued image draw.
type spriteCommand struct {
	image *ebiten.Image
	geoM  ebiten.GeoM
	color vfx.Color
	tint  bool
	blend BlendMode
}

// SpriteBatch queues image draws between Begin and End and submits them to
// its target, in order, on End. Draws issued outside Begin/End are
// submitted immediately. SpriteBatch implements vfx.Batch, so a Manager can
// redirect it into the capture buffer mid-frame.
type SpriteBatch struct {
	target    *ebiten.Image
	drawing   bool
	commands  []spriteCommand
	op        ebiten.DrawImageOptions
	drawCalls int
}

// NewSpriteBatch creates a batch drawing into target. target may be nil
// until the first Draw call binds the screen.
func NewSpriteBatch(target *ebiten.Image) *SpriteBatch {
	return &SpriteBatch{target: target}
}

// Begin starts queueing.
func (b *SpriteBatch) Begin() {
	b.drawing = true
	b.drawCalls = 0
}

// End submits queued draws and stops queueing.
func (b *SpriteBatch) End() {
	b.flush()
	b.drawing = false
}

// IsDrawing reports whether the batch is between Begin and End.
func (b *SpriteBatch) IsDrawing() bool { return b.drawing }

// Target returns the image draws are submitted to.
func (b *SpriteBatch) Target() *ebiten.Image { return b.target }

// SetTarget changes the draw target. Queued draws are not flushed; callers
// End the batch first.
func (b *SpriteBatch) SetTarget(target *ebiten.Image) { b.target = target }

// Len returns the number of queued draws.
func (b *SpriteBatch) Len() int { return len(b.commands) }

// DrawCalls returns the number of draws submitted since Begin.
func (b *SpriteBatch) DrawCalls() int { return b.drawCalls }

// DrawImage draws img transformed by geoM and scaled by c. Pass
// vfx.ColorWhite to draw it untinted; vfx.ColorTransparent draws nothing
// visible.
func (b *SpriteBatch) DrawImage(img *ebiten.Image, geoM ebiten.GeoM, c vfx.Color, blend BlendMode) {
	b.push(spriteCommand{image: img, geoM: geoM, color: c, tint: true, blend: blend})
}

// DrawImageAt draws img untinted with its top-left corner at (x, y).
func (b *SpriteBatch) DrawImageAt(img *ebiten.Image, x, y float64) {
	var g ebiten.GeoM
	g.Translate(x, y)
	b.push(spriteCommand{image: img, geoM: g, blend: BlendNormal})
}

// DrawRect fills a rectangle with c.
func (b *SpriteBatch) DrawRect(x, y, w, h float64, c vfx.Color) {
	var g ebiten.GeoM
	g.Scale(w, h)
	g.Translate(x, y)
	b.DrawImage(ensureWhitePixel(), g, c, BlendNormal)
}

func (b *SpriteBatch) push(cmd spriteCommand) {
	if cmd.image == nil {
		return
	}
	if !b.drawing {
		b.submit(&cmd)
		return
	}
	b.commands = append(b.commands, cmd)
}

func (b *SpriteBatch) flush() {
	for i := range b.commands {
		b.submit(&b.commands[i])
	}
	clear(b.commands)
	b.commands = b.commands[:0]
}

// submit draws a single command using DrawImage.
func (b *SpriteBatch) submit(cmd *spriteCommand) {
	if b.target == nil {
		return
	}
	op := &b.op
	op.GeoM = cmd.geoM
	op.ColorScale.Reset()
	if cmd.tint {
		p := cmd.color.Premultiplied()
		op.ColorScale.Scale(p[0], p[1], p[2], p[3])
	}
	op.Blend = cmd.blend.EbitenBlend()
	b.target.DrawImage(cmd.image, op)
	b.drawCalls++
}
