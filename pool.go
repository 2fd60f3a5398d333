package vfx

import "log/slog"

// maxBufferSize bounds either dimension of a buffer. Backends may enforce a
// lower limit of their own.
const maxBufferSize = 16384

// Buffer is an off-screen colour target owned by a Pool. Its fields are
// read-only to callers; the image is lent to effects for the duration of one
// Apply call.
type Buffer[I any] struct {
	image    I
	width    int
	height   int
	format   PixelFormat
	id       uint64
	released bool
}

// Image returns the backend image. The result is undefined after Release.
func (b *Buffer[I]) Image() I { return b.image }

// Width returns the buffer width in pixels.
func (b *Buffer[I]) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer[I]) Height() int { return b.height }

// Format returns the buffer's pixel format.
func (b *Buffer[I]) Format() PixelFormat { return b.format }

// Released reports whether the buffer's memory has been returned.
func (b *Buffer[I]) Released() bool { return b.released }

// Pool owns a small set of off-screen buffers created through a Device.
// After Dispose the pool releases everything it handed out.
type Pool[I any] struct {
	dev    Device[I]
	live   map[uint64]*Buffer[I]
	nextID uint64
	bytes  int64
}

// NewPool creates an empty pool backed by dev.
func NewPool[I any](dev Device[I]) *Pool[I] {
	return &Pool[I]{dev: dev, live: make(map[uint64]*Buffer[I], 2)}
}

// Allocate creates a cleared buffer. It fails with an *AllocationError when
// the dimensions are out of range or the device cannot create the image.
func (p *Pool[I]) Allocate(width, height int, format PixelFormat) (*Buffer[I], error) {
	if width <= 0 || height <= 0 || width > maxBufferSize || height > maxBufferSize {
		return nil, &AllocationError{Width: width, Height: height, Format: format, Err: ErrInvalidSize}
	}
	if format.BytesPerPixel() == 0 {
		return nil, &AllocationError{Width: width, Height: height, Format: format, Err: ErrUnsupportedFormat}
	}
	img, err := p.dev.NewImage(width, height, format)
	if err != nil {
		Logger().Warn("vfx: buffer allocation failed",
			slog.Int("width", width), slog.Int("height", height),
			slog.String("format", format.String()), slog.Any("err", err))
		return nil, &AllocationError{Width: width, Height: height, Format: format, Err: err}
	}
	p.nextID++
	b := &Buffer[I]{image: img, width: width, height: height, format: format, id: p.nextID}
	p.live[b.id] = b
	p.bytes += bufferBytes(b)
	Logger().Debug("vfx: buffer allocated",
		slog.Uint64("id", b.id), slog.Int("width", width), slog.Int("height", height),
		slog.String("format", format.String()))
	return b, nil
}

// Release disposes the buffer's image. Releasing nil or an already released
// buffer is a no-op.
func (p *Pool[I]) Release(b *Buffer[I]) {
	if b == nil || b.released {
		return
	}
	p.dev.DisposeImage(b.image)
	var zero I
	b.image = zero
	b.released = true
	if _, ok := p.live[b.id]; ok {
		delete(p.live, b.id)
		p.bytes -= bufferBytes(b)
	}
	Logger().Debug("vfx: buffer released", slog.Uint64("id", b.id))
}

// Resize reallocates b at the new dimensions, keeping its pixel format. The
// old image is released before the new one is allocated; contents are lost.
// Unchanged dimensions are a no-op. On failure b is left released.
func (p *Pool[I]) Resize(b *Buffer[I], width, height int) error {
	if !b.released && b.width == width && b.height == height {
		return nil
	}
	format := b.format
	p.Release(b)
	nb, err := p.Allocate(width, height, format)
	if err != nil {
		return err
	}
	// Keep the caller's pointer valid: move the new allocation into b.
	delete(p.live, nb.id)
	*b = *nb
	p.live[b.id] = b
	return nil
}

// Clear fills the buffer with transparent black.
func (p *Pool[I]) Clear(b *Buffer[I]) {
	if b == nil || b.released {
		return
	}
	p.dev.ClearImage(b.image)
}

// Live returns the number of buffers that have not been released.
func (p *Pool[I]) Live() int { return len(p.live) }

// Bytes returns the approximate memory held by live buffers.
func (p *Pool[I]) Bytes() int64 { return p.bytes }

// Dispose releases every live buffer.
func (p *Pool[I]) Dispose() {
	for _, b := range p.live {
		p.Release(b)
	}
}

func bufferBytes[I any](b *Buffer[I]) int64 {
	return int64(b.width) * int64(b.height) * int64(b.format.BytesPerPixel())
}
