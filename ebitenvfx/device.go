// Package ebitenvfx runs the vfx pipeline on Ebitengine. Buffers are
// *ebiten.Image and effects are Kage shaders or DrawImage passes.
package ebitenvfx

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// Effect is an effect over Ebitengine images.
type Effect = vfx.Effect[*ebiten.Image]

// Manager is a pipeline over Ebitengine images.
type Manager = vfx.Manager[*ebiten.Image]

// Device implements vfx.Device on Ebitengine. Ebitengine images are always
// 8 bits per channel with premultiplied alpha, so only vfx.RGBA8 is
// supported.
type Device struct {
	op ebiten.DrawImageOptions
}

// NewImage allocates an unmanaged image so the work buffers never share an
// atlas with sprites.
func (d *Device) NewImage(width, height int, format vfx.PixelFormat) (img *ebiten.Image, err error) {
	if format != vfx.RGBA8 {
		return nil, fmt.Errorf("ebitenvfx: %s: %w", format, vfx.ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ebitenvfx: %dx%d: %w", width, height, vfx.ErrInvalidSize)
	}
	// Ebitengine panics instead of returning an error when the GPU refuses
	// an image.
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("ebitenvfx: new %dx%d image: %v", width, height, r)
		}
	}()
	return ebiten.NewImageWithOptions(image.Rect(0, 0, width, height), &ebiten.NewImageOptions{
		Unmanaged: true,
	}), nil
}

// DisposeImage frees the image's GPU memory.
func (d *Device) DisposeImage(img *ebiten.Image) {
	if img != nil {
		img.Deallocate()
	}
}

// ClearImage fills img with transparent black.
func (d *Device) ClearImage(img *ebiten.Image) { img.Clear() }

// ImageSize returns the image's dimensions.
func (d *Device) ImageSize(img *ebiten.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// Blit draws src scaled to fill viewport of dst.
func (d *Device) Blit(dst, src *ebiten.Image, viewport image.Rectangle, blend bool) {
	op := &d.op
	op.GeoM.Reset()
	op.ColorScale.Reset()
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == viewport.Dx() && sh == viewport.Dy() {
		op.Filter = ebiten.FilterNearest
	} else {
		op.Filter = ebiten.FilterLinear
		op.GeoM.Scale(float64(viewport.Dx())/float64(sw), float64(viewport.Dy())/float64(sh))
	}
	op.GeoM.Translate(float64(viewport.Min.X), float64(viewport.Min.Y))
	if blend {
		op.Blend = ebiten.BlendSourceOver
	} else {
		op.Blend = ebiten.BlendCopy
	}
	dst.DrawImage(src, op)
}

// Screen implements vfx.Display for the image Ebitengine passes to Draw.
// Bind it at the start of every Draw call.
type Screen struct {
	target   *ebiten.Image
	viewport image.Rectangle
}

// Bind sets the current output image.
func (s *Screen) Bind(target *ebiten.Image) { s.target = target }

// SetViewport restricts output to r. An empty rectangle means the whole
// target.
func (s *Screen) SetViewport(r image.Rectangle) { s.viewport = r }

// BoundTarget returns the bound image.
func (s *Screen) BoundTarget() *ebiten.Image { return s.target }

// Viewport returns the output rectangle.
func (s *Screen) Viewport() image.Rectangle {
	if !s.viewport.Empty() || s.target == nil {
		return s.viewport
	}
	return s.target.Bounds()
}
