package soft

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/phanxgames/vfx"
)

var red = color.RGBA{R: 255, A: 255}

func newRig(t *testing.T, w, h int) (*vfx.Manager[draw.Image], *Device, *Screen, *Batch) {
	t.Helper()
	screen := NewScreen(w, h)
	batch := NewBatch(screen.Target)
	m, dev, err := NewManager(screen, batch, Config{Width: w, Height: h})
	if err != nil {
		t.Fatal(err)
	}
	return m, dev, screen, batch
}

// frame runs one frame, calling draw while the capture is active.
func frame(t *testing.T, m *vfx.Manager[draw.Image], b *Batch, drawFn func(b *Batch)) {
	t.Helper()
	b.Begin()
	defer b.End()
	steps := []struct {
		name string
		fn   func() error
	}{
		{"CleanUpBuffers", m.CleanUpBuffers},
		{"BeginInputCapture", m.BeginInputCapture},
		{"draw", func() error { drawFn(b); return nil }},
		{"EndInputCapture", m.EndInputCapture},
		{"ApplyEffects", m.ApplyEffects},
		{"RenderToScreen", m.RenderToScreen},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
}

func assertAll(t *testing.T, img image.Image, want color.RGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}
			if got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRedQuadThroughPassthrough(t *testing.T) {
	m, _, screen, b := newRig(t, 100, 100)
	if err := m.AddEffect(&Passthrough{}); err != nil {
		t.Fatal(err)
	}
	frame(t, m, b, func(b *Batch) {
		b.DrawRect(image.Rect(0, 0, 100, 100), red)
	})
	assertAll(t, screen.Target, red)
	if m.Stats().Swaps != 1 {
		t.Errorf("swaps = %d, want 1", m.Stats().Swaps)
	}
}

func TestEmptyChainBitIdentical(t *testing.T) {
	m, _, _, b := newRig(t, 16, 8)
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 37)
	}
	// Keep the pattern premultiplied so source-over is a plain copy.
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+3] = 255
	}
	frame(t, m, b, func(b *Batch) { b.DrawImage(src, 0, 0) })

	tex, err := m.ResultTexture()
	if err != nil {
		t.Fatal(err)
	}
	got := tex.(*image.RGBA)
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("empty chain output differs from captured input")
	}
}

func TestCaptureDoesNotLeakToScreen(t *testing.T) {
	screen := NewScreen(10, 10)
	b := NewBatch(screen.Target)
	m, _, err := NewManager(screen, b, Config{Width: 10, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	b.Begin()
	b.DrawRect(image.Rect(0, 0, 5, 10), red)
	_ = m.CleanUpBuffers()
	_ = m.BeginInputCapture()
	b.DrawRect(image.Rect(5, 0, 10, 10), color.RGBA{G: 255, A: 255})
	_ = m.EndInputCapture()
	b.End()

	if got := screen.Target.At(7, 5); got != (color.RGBA{}) {
		t.Errorf("screen (7,5) = %v, want untouched", got)
	}
	if got := screen.Target.At(2, 5); got != red {
		t.Errorf("screen (2,5) = %v, want red flushed before capture", got)
	}
	if err := m.ApplyEffects(); err != nil {
		t.Fatal(err)
	}
	tex, _ := m.ResultTexture()
	if got := tex.At(7, 5); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("captured (7,5) = %v, want green", got)
	}
	if got := tex.At(2, 5); got != (color.RGBA{}) {
		t.Errorf("captured (2,5) = %v, want transparent", got)
	}
}

func TestInvertTwiceIsIdentity(t *testing.T) {
	m, _, screen, b := newRig(t, 8, 8)
	_ = m.AddEffect(NewSimple(FilterInvert), NewSimple(FilterInvert))
	col := color.RGBA{R: 10, G: 200, B: 90, A: 255}
	frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 8, 8), col) })
	assertAll(t, screen.Target, col)
	if st := m.Stats(); st.Swaps != 2 || st.ResultIndex != 0 {
		t.Errorf("stats = %+v, want 2 swaps ending in buffer 0", st)
	}
}

func TestDisabledEffectSkipped(t *testing.T) {
	m, _, screen, b := newRig(t, 4, 4)
	inv := NewSimple(FilterInvert)
	inv.SetEnabled(false)
	_ = m.AddEffect(inv)
	frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 4, 4), red) })
	assertAll(t, screen.Target, red)
}

func TestGrayscaleRemovesChroma(t *testing.T) {
	m, _, _, b := newRig(t, 4, 4)
	_ = m.AddEffect(NewSimple(FilterGrayscale))
	frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 4, 4), red) })
	tex, _ := m.ResultTexture()
	c := tex.At(1, 1).(color.RGBA)
	if c.R != c.G || c.G != c.B {
		t.Errorf("pixel = %v, want gray", c)
	}
}

func TestResizeDeferredWithRealBuffers(t *testing.T) {
	m, _, _, b := newRig(t, 20, 20)
	b.Begin()
	_ = m.BeginInputCapture()
	_ = m.Resize(40, 30)
	b.DrawRect(image.Rect(0, 0, 20, 20), red)
	_ = m.EndInputCapture()
	b.End()
	_ = m.ApplyEffects()
	tex, _ := m.ResultTexture()
	if sz := tex.Bounds().Size(); sz != image.Pt(20, 20) {
		t.Errorf("in-flight frame size = %v, want 20x20", sz)
	}
	assertAll(t, tex, red)

	_ = m.BeginInputCapture()
	_ = m.EndInputCapture()
	_ = m.ApplyEffects()
	tex, _ = m.ResultTexture()
	if sz := tex.Bounds().Size(); sz != image.Pt(40, 30) {
		t.Errorf("next frame size = %v, want 40x30", sz)
	}
}

func TestDisposeReleasesImages(t *testing.T) {
	m, dev, _, _ := newRig(t, 4, 4)
	if dev.Live() != 2 {
		t.Errorf("Live = %d, want 2", dev.Live())
	}
	_ = m.Dispose()
	if dev.Live() != 0 {
		t.Errorf("Live = %d after dispose, want 0", dev.Live())
	}
	if err := m.BeginInputCapture(); !errors.Is(err, vfx.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestDeviceFormats(t *testing.T) {
	d := NewDevice()
	img, err := d.NewImage(3, 2, vfx.RGBA8)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := img.(*image.RGBA); !ok {
		t.Errorf("RGBA8 image = %T, want *image.RGBA", img)
	}
	for _, f := range []vfx.PixelFormat{vfx.RGBA16, vfx.RGBA32F} {
		if _, err := d.NewImage(3, 2, f); !errors.Is(err, vfx.ErrUnsupportedFormat) {
			t.Errorf("%s err = %v, want ErrUnsupportedFormat", f, err)
		}
	}
	if _, err := d.NewImage(0, 2, vfx.RGBA8); !errors.Is(err, vfx.ErrInvalidSize) {
		t.Errorf("zero width err = %v, want ErrInvalidSize", err)
	}
}

// Deeper formats would lose precision in the 8-bit effects, so the manager
// refuses them up front instead of truncating after the first effect.
func TestManagerRGBA16Unsupported(t *testing.T) {
	_, _, err := NewManager(NewScreen(4, 4), nil, Config{Width: 4, Height: 4, Format: vfx.RGBA16})
	if !errors.Is(err, vfx.ErrAllocation) || !errors.Is(err, vfx.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want allocation error for unsupported format", err)
	}
}

// A full-precision source survives an RGBA8 pipeline with only the
// documented 8-bit quantisation: 0x1234 becomes 0x12.
func TestEffectOutputIsRGBA8(t *testing.T) {
	m, _, _, b := newRig(t, 2, 2)
	_ = m.AddEffect(NewGaussianBlur(0))
	src := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 0x12
		if i%8 == 6 || i%8 == 7 {
			src.Pix[i] = 0xff
		}
	}
	frame(t, m, b, func(b *Batch) { b.DrawImage(src, 0, 0) })
	tex, _ := m.ResultTexture()
	if _, ok := tex.(*image.RGBA); !ok {
		t.Fatalf("result = %T, want *image.RGBA", tex)
	}
	if got := tex.(*image.RGBA).RGBAAt(1, 1); got != (color.RGBA{0x12, 0x12, 0x12, 0xff}) {
		t.Errorf("pixel = %v, want {0x12 0x12 0x12 0xff}", got)
	}
}

func TestColorMatrixStraightAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	// Half-transparent pure red, premultiplied.
	src.SetRGBA(0, 0, color.RGBA{R: 64, A: 128})

	cm := NewColorMatrix()
	dst := image.NewRGBA(src.Bounds())
	if err := cm.Apply(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{R: 64, A: 128}) {
		t.Errorf("identity = %v, want {64 0 0 128}", got)
	}

	// Saturating red keeps the pixel within its alpha.
	cm.Matrix[4] = 0.5
	if err := cm.Apply(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{R: 128, A: 128}) {
		t.Errorf("red offset = %v, want {128 0 0 128}", got)
	}

	clearSrc := image.NewRGBA(src.Bounds())
	if err := cm.Apply(clearSrc, dst); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("transparent pixel = %v, want fully transparent", got)
	}
}

func TestManagerRGBA32FUnsupported(t *testing.T) {
	_, _, err := NewManager(NewScreen(4, 4), nil, Config{Width: 4, Height: 4, Format: vfx.RGBA32F})
	if !errors.Is(err, vfx.ErrAllocation) || !errors.Is(err, vfx.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want allocation error for unsupported format", err)
	}
}

func TestBlitScalesIntoViewport(t *testing.T) {
	d := NewDevice()
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(src, src.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	d.Blit(dst, src, image.Rect(2, 2, 8, 8), false)
	if got := dst.At(5, 5); got != red {
		t.Errorf("inside viewport = %v, want red", got)
	}
	if got := dst.At(0, 0); got != (color.RGBA{}) {
		t.Errorf("outside viewport = %v, want untouched", got)
	}
}

func TestBlitBlending(t *testing.T) {
	d := NewDevice()
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	dst.SetRGBA(0, 0, red)
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))

	d.Blit(dst, src, dst.Bounds(), true)
	if dst.RGBAAt(0, 0) != red {
		t.Error("transparent source over red should keep red")
	}
	d.Blit(dst, src, dst.Bounds(), false)
	if dst.RGBAAt(0, 0) != (color.RGBA{}) {
		t.Error("copy should replace the destination")
	}
}

func TestUseAsInput(t *testing.T) {
	m, _, screen, _ := newRig(t, 8, 8)
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(src, src.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)
	if err := m.UseAsInput(src); err != nil {
		t.Fatal(err)
	}
	_ = m.ApplyEffects()
	_ = m.RenderToScreen()
	assertAll(t, screen.Target, red)
}

func TestUseAsInputResultTexture(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		m, _, screen, b := newRig(t, 8, 8)
		for range n {
			_ = m.AddEffect(&Passthrough{})
		}
		frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 8, 8), red) })
		res, err := m.ResultTexture()
		if err != nil {
			t.Fatal(err)
		}
		clear(screen.Target.(*image.RGBA).Pix)
		if err := m.UseAsInput(res); err != nil {
			t.Fatal(err)
		}
		if err := m.ApplyEffects(); err != nil {
			t.Fatal(err)
		}
		if err := m.RenderToScreen(); err != nil {
			t.Fatal(err)
		}
		assertAll(t, screen.Target, red)
	}
}

func TestMotionBlurKeepsHistoryAcrossCleanUp(t *testing.T) {
	m, _, _, b := newRig(t, 4, 4)
	mb := NewMotionBlur(0.5)
	_ = m.AddEffect(mb)

	frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 4, 4), color.RGBA{R: 200, A: 255}) })
	frame(t, m, b, func(b *Batch) {})

	tex, _ := m.ResultTexture()
	c := tex.At(1, 1).(color.RGBA)
	if c.R < 80 || c.R > 120 {
		t.Errorf("trail red = %d, want about half of 200", c.R)
	}

	mb.Reset()
	frame(t, m, b, func(b *Batch) {})
	tex, _ = m.ResultTexture()
	if c := tex.At(1, 1).(color.RGBA); c.R != 0 {
		t.Errorf("after Reset red = %d, want 0", c.R)
	}
}

func TestVignetteDarkensCorners(t *testing.T) {
	m, _, _, b := newRig(t, 32, 32)
	_ = m.AddEffect(NewVignette())
	white := color.RGBA{255, 255, 255, 255}
	frame(t, m, b, func(b *Batch) { b.DrawRect(image.Rect(0, 0, 32, 32), white) })
	tex, _ := m.ResultTexture()
	center := tex.At(16, 16).(color.RGBA)
	corner := tex.At(0, 0).(color.RGBA)
	if corner.R >= center.R {
		t.Errorf("corner %v should be darker than centre %v", corner, center)
	}
	if corner.A != 255 {
		t.Errorf("corner alpha = %d, want 255", corner.A)
	}
}

func TestPixelateUniformCells(t *testing.T) {
	m, _, _, b := newRig(t, 8, 8)
	_ = m.AddEffect(NewPixelate(4))
	frame(t, m, b, func(b *Batch) {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				b.DrawRect(image.Rect(x, y, x+1, y+1), color.RGBA{uint8(x * 30), uint8(y * 30), 0, 255})
			}
		}
	})
	tex, _ := m.ResultTexture()
	first := tex.At(0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if tex.At(x, y) != first {
				t.Fatalf("pixel (%d, %d) = %v differs from cell colour %v", x, y, tex.At(x, y), first)
			}
		}
	}
}

func TestBloomBrightensNeighbours(t *testing.T) {
	m, _, _, b := newRig(t, 16, 16)
	bloom := NewBloom()
	bloom.Radius = 3
	_ = m.AddEffect(bloom)
	frame(t, m, b, func(b *Batch) {
		b.DrawRect(image.Rect(0, 0, 16, 16), color.RGBA{A: 255})
		b.DrawRect(image.Rect(7, 7, 9, 9), color.RGBA{255, 255, 255, 255})
	})
	tex, _ := m.ResultTexture()
	if c := tex.At(10, 8).(color.RGBA); c.R == 0 {
		t.Error("pixel next to the bright spot should glow")
	}
	if c := tex.At(0, 0).(color.RGBA); c.R != 0 {
		t.Errorf("far corner = %v, want dark", c)
	}
}

func TestBatchImmediateOutsideBegin(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := NewBatch(dst)
	b.DrawRect(image.Rect(0, 0, 1, 1), red)
	if dst.RGBAAt(0, 0) != red {
		t.Error("draw outside Begin/End should be immediate")
	}
	b.Begin()
	b.DrawRect(image.Rect(1, 0, 2, 1), red)
	if dst.RGBAAt(1, 0) == red {
		t.Error("draw inside Begin/End should be queued")
	}
	b.End()
	if dst.RGBAAt(1, 0) != red {
		t.Error("End should submit queued draws")
	}
}

func TestBatchTransform(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(src, src.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	b := NewBatch(dst)
	b.DrawImageTransform(src, f64.Aff3{2, 0, 2, 0, 2, 2})
	if got := dst.RGBAAt(4, 4); got != red {
		t.Errorf("scaled draw (4,4) = %v, want red", got)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("(0,0) = %v, want untouched", got)
	}
}

func BenchmarkGaussianBlurFrame(b *testing.B) {
	screen := NewScreen(256, 256)
	m, _, err := NewManager(screen, nil, Config{Width: 256, Height: 256})
	if err != nil {
		b.Fatal(err)
	}
	_ = m.AddEffect(NewGaussianBlur(4))
	for b.Loop() {
		_ = m.CleanUpBuffers()
		_ = m.BeginInputCapture()
		_ = m.EndInputCapture()
		_ = m.ApplyEffects()
		_ = m.RenderToScreen()
	}
}
