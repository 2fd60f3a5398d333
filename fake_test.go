package vfx

import (
	"errors"
	"fmt"
	"image"
)

// fakeImage stands in for a backend image. Its "pixels" are a single value
// so effects and blits can be traced without a GPU.
type fakeImage struct {
	id       int
	w, h     int
	value    int
	disposed bool
	clears   int
}

func (f *fakeImage) String() string { return fmt.Sprintf("img%d", f.id) }

type blitCall struct {
	dst, src *fakeImage
	viewport image.Rectangle
	blend    bool
}

type fakeDevice struct {
	next     int
	images   []*fakeImage
	blits    []blitCall
	failNext bool
}

func (d *fakeDevice) NewImage(w, h int, format PixelFormat) (*fakeImage, error) {
	if d.failNext {
		d.failNext = false
		return nil, errors.New("out of memory")
	}
	if format == RGBA32F {
		return nil, ErrUnsupportedFormat
	}
	d.next++
	img := &fakeImage{id: d.next, w: w, h: h}
	d.images = append(d.images, img)
	return img, nil
}

func (d *fakeDevice) DisposeImage(img *fakeImage) { img.disposed = true }

func (d *fakeDevice) ClearImage(img *fakeImage) {
	img.value = 0
	img.clears++
}

func (d *fakeDevice) ImageSize(img *fakeImage) (int, int) { return img.w, img.h }

func (d *fakeDevice) Blit(dst, src *fakeImage, vp image.Rectangle, blend bool) {
	dst.value = src.value
	d.blits = append(d.blits, blitCall{dst: dst, src: src, viewport: vp, blend: blend})
}

func (d *fakeDevice) live() int {
	n := 0
	for _, img := range d.images {
		if !img.disposed {
			n++
		}
	}
	return n
}

type fakeDisplay struct {
	target *fakeImage
	vp     image.Rectangle
}

func (d *fakeDisplay) BoundTarget() *fakeImage { return d.target }

func (d *fakeDisplay) Viewport() image.Rectangle { return d.vp }

// fakeBatch queues values and writes the last one into the target on End.
type fakeBatch struct {
	target  *fakeImage
	drawing bool
	pending []int
	log     []string
}

func (b *fakeBatch) Begin() {
	b.drawing = true
	b.log = append(b.log, "begin:"+b.target.String())
}

func (b *fakeBatch) End() {
	if len(b.pending) > 0 {
		b.target.value = b.pending[len(b.pending)-1]
		b.pending = b.pending[:0]
	}
	b.drawing = false
	b.log = append(b.log, "end:"+b.target.String())
}

func (b *fakeBatch) IsDrawing() bool { return b.drawing }

func (b *fakeBatch) Target() *fakeImage { return b.target }

func (b *fakeBatch) SetTarget(t *fakeImage) { b.target = t }

func (b *fakeBatch) Draw(v int) { b.pending = append(b.pending, v) }

// addEffect writes src+delta into dst and records every call.
type addEffect struct {
	delta    int
	disabled bool
	calls    [][2]*fakeImage
	resized  [][2]int
	updated  float32
	err      error
}

func (e *addEffect) Apply(src, dst *fakeImage) error {
	e.calls = append(e.calls, [2]*fakeImage{src, dst})
	if e.err != nil {
		return e.err
	}
	dst.value = src.value + e.delta
	return nil
}

func (e *addEffect) Enabled() bool { return !e.disabled }

func (e *addEffect) Resize(w, h int) { e.resized = append(e.resized, [2]int{w, h}) }

func (e *addEffect) Update(dt float32) { e.updated += dt }

func (e *addEffect) Name() string { return fmt.Sprintf("add%d", e.delta) }

func newFakeManager(cfg Config) (*Manager[*fakeImage], *fakeDevice, *fakeDisplay, *fakeBatch) {
	dev := &fakeDevice{}
	screen := &fakeImage{id: 0, w: 640, h: 480}
	display := &fakeDisplay{target: screen, vp: image.Rect(0, 0, 640, 480)}
	batch := &fakeBatch{target: screen}
	m, err := NewManager[*fakeImage](dev, display, batch, cfg)
	if err != nil {
		panic(err)
	}
	return m, dev, display, batch
}
