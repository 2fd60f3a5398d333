package soft

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/phanxgames/vfx"
)

// Device is the CPU implementation of vfx.Device. Buffers are *image.RGBA,
// so only vfx.RGBA8 is supported: the bild effects compute in 8 bits per
// channel and would silently truncate deeper formats.
type Device struct {
	// Scaler resamples blits whose source and viewport sizes differ.
	// Equal-size blits are always exact copies.
	Scaler draw.Scaler

	live int
}

// NewDevice returns a device that scales with bilinear filtering.
func NewDevice() *Device {
	return &Device{Scaler: draw.BiLinear}
}

// NewImage allocates a cleared image.
func (d *Device) NewImage(width, height int, format vfx.PixelFormat) (draw.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("soft: %dx%d: %w", width, height, vfx.ErrInvalidSize)
	}
	if format != vfx.RGBA8 {
		return nil, fmt.Errorf("soft: %s: %w", format, vfx.ErrUnsupportedFormat)
	}
	d.live++
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

// DisposeImage drops the device's reference. The memory is reclaimed by the
// garbage collector.
func (d *Device) DisposeImage(img draw.Image) {
	if img == nil {
		return
	}
	d.live--
}

// ClearImage fills img with transparent black.
func (d *Device) ClearImage(img draw.Image) {
	switch m := img.(type) {
	case *image.RGBA:
		clear(m.Pix)
	default:
		draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
}

// ImageSize returns the image's dimensions.
func (d *Device) ImageSize(img draw.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// Blit draws src scaled into viewport of dst.
func (d *Device) Blit(dst, src draw.Image, viewport image.Rectangle, blend bool) {
	op := draw.Src
	if blend {
		op = draw.Over
	}
	sr := src.Bounds()
	if sr.Size() == viewport.Size() {
		draw.Draw(dst, viewport, src, sr.Min, op)
		return
	}
	s := d.Scaler
	if s == nil {
		s = draw.BiLinear
	}
	s.Scale(dst, viewport, src, sr, op, nil)
}

// Live returns the number of images allocated and not yet disposed.
func (d *Device) Live() int { return d.live }

// Screen is a vfx.Display over an in-memory image, standing in for the
// window's framebuffer.
type Screen struct {
	Target draw.Image
	// Rect is the viewport. Empty means the whole target.
	Rect image.Rectangle
}

// NewScreen creates a cleared RGBA screen of the given size.
func NewScreen(width, height int) *Screen {
	return &Screen{Target: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// BoundTarget returns the screen image.
func (s *Screen) BoundTarget() draw.Image { return s.Target }

// Viewport returns Rect, or the target's bounds when Rect is empty.
func (s *Screen) Viewport() image.Rectangle {
	if s.Rect.Empty() {
		return s.Target.Bounds()
	}
	return s.Rect
}

// Config configures NewManager.
type Config = vfx.Config

// NewManager creates a pipeline rendering to screen through batch on a new
// software device. batch may be nil.
func NewManager(screen *Screen, batch *Batch, cfg Config) (*vfx.Manager[draw.Image], *Device, error) {
	dev := NewDevice()
	var b vfx.Batch[draw.Image]
	if batch != nil {
		b = batch
	}
	m, err := vfx.NewManager[draw.Image](dev, screen, b, cfg)
	if err != nil {
		return nil, nil, err
	}
	vfx.Logger().Debug("soft: manager created",
		slog.Int("width", cfg.Width), slog.Int("height", cfg.Height), slog.String("format", cfg.Format.String()))
	return m, dev, nil
}
