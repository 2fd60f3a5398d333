package vfx

import (
	"fmt"
	"image"
)

// Device allocates and manipulates backend images. I is the backend's image
// handle type (*ebiten.Image for the GPU backend, draw.Image for the software
// backend).
type Device[I any] interface {
	// NewImage allocates a cleared image. Implementations return an error
	// wrapping ErrInvalidSize or ErrUnsupportedFormat when they cannot.
	NewImage(width, height int, format PixelFormat) (I, error)
	// DisposeImage frees the image's backing memory.
	DisposeImage(img I)
	// ClearImage fills the image with transparent black.
	ClearImage(img I)
	// ImageSize returns the image dimensions in pixels.
	ImageSize(img I) (width, height int)
	// Blit draws src scaled to fill viewport within dst. With blend false the
	// destination pixels are replaced; with blend true src is composited
	// source-over.
	Blit(dst, src I, viewport image.Rectangle, blend bool)
}

// Display reports the host's currently bound output target and viewport.
// It stands in for the per-platform framebuffer/viewport state queries and is
// injected into the Manager at construction.
type Display[I any] interface {
	BoundTarget() I
	Viewport() image.Rectangle
}

// Batch is the host's batched drawing interface. Draw calls issued between
// Begin and End are submitted to Target, in order, no later than End.
type Batch[I any] interface {
	Begin()
	End()
	IsDrawing() bool
	Target() I
	SetTarget(target I)
}

// PixelFormat selects the colour format of off-screen buffers. It is fixed for
// the lifetime of a pipeline.
type PixelFormat uint8

const (
	RGBA8   PixelFormat = iota // 8 bits per channel, premultiplied alpha
	RGBA16                     // 16 bits per channel
	RGBA32F                    // 32-bit float per channel
)

// String returns the lower-case format name used in configuration files.
func (f PixelFormat) String() string {
	switch f {
	case RGBA8:
		return "rgba8"
	case RGBA16:
		return "rgba16"
	case RGBA32F:
		return "rgba32f"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the storage size of one pixel, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case RGBA8:
		return 4
	case RGBA16:
		return 8
	case RGBA32F:
		return 16
	default:
		return 0
	}
}

// ParsePixelFormat parses a format name as produced by String. The empty
// string yields RGBA8.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch s {
	case "", "rgba8":
		return RGBA8, nil
	case "rgba16":
		return RGBA16, nil
	case "rgba32f":
		return RGBA32F, nil
	}
	return 0, &parseFormatError{s}
}

// MarshalText implements encoding.TextMarshaler.
func (f PixelFormat) MarshalText() ([]byte, error) {
	if f.BytesPerPixel() == 0 {
		return nil, &parseFormatError{f.String()}
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *PixelFormat) UnmarshalText(b []byte) error {
	v, err := ParsePixelFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

type parseFormatError struct{ name string }

func (e *parseFormatError) Error() string { return fmt.Sprintf("vfx: unknown pixel format %q", e.name) }

func (e *parseFormatError) Unwrap() error { return ErrUnsupportedFormat }
