package ebitenvfx

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// --- Device ---

func TestDeviceRejectsUnsupportedFormats(t *testing.T) {
	var d Device
	for _, f := range []vfx.PixelFormat{vfx.RGBA16, vfx.RGBA32F} {
		if _, err := d.NewImage(4, 4, f); !errors.Is(err, vfx.ErrUnsupportedFormat) {
			t.Errorf("NewImage(%s) err = %v, want ErrUnsupportedFormat", f, err)
		}
	}
	if _, err := d.NewImage(0, 4, vfx.RGBA8); !errors.Is(err, vfx.ErrInvalidSize) {
		t.Errorf("NewImage(0x4) err = %v, want ErrInvalidSize", err)
	}
}

func TestDeviceNewImageSize(t *testing.T) {
	var d Device
	img, err := d.NewImage(30, 20, vfx.RGBA8)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := d.ImageSize(img); w != 30 || h != 20 {
		t.Errorf("ImageSize = %dx%d, want 30x20", w, h)
	}
	d.DisposeImage(img)
	d.DisposeImage(nil)
}

func TestScreenViewport(t *testing.T) {
	var s Screen
	if !s.Viewport().Empty() {
		t.Error("unbound screen should report an empty viewport")
	}
	img := ebiten.NewImage(64, 48)
	s.Bind(img)
	if s.BoundTarget() != img {
		t.Error("BoundTarget should return the bound image")
	}
	if got := s.Viewport(); got != image.Rect(0, 0, 64, 48) {
		t.Errorf("Viewport = %v, want full target", got)
	}
	s.SetViewport(image.Rect(10, 10, 20, 20))
	if got := s.Viewport(); got != image.Rect(10, 10, 20, 20) {
		t.Errorf("Viewport = %v, want explicit rect", got)
	}
}

// --- SpriteBatch ---

func TestSpriteBatchQueuesUntilEnd(t *testing.T) {
	target := ebiten.NewImage(8, 8)
	b := NewSpriteBatch(target)
	b.Begin()
	b.DrawRect(0, 0, 4, 4, vfx.ColorWhite)
	b.DrawImageAt(ebiten.NewImage(2, 2), 1, 1)
	if b.Len() != 2 || b.DrawCalls() != 0 {
		t.Errorf("Len = %d, DrawCalls = %d; want 2 queued, 0 submitted", b.Len(), b.DrawCalls())
	}
	b.End()
	if b.Len() != 0 || b.DrawCalls() != 2 {
		t.Errorf("after End Len = %d, DrawCalls = %d; want 0, 2", b.Len(), b.DrawCalls())
	}
	if b.IsDrawing() {
		t.Error("IsDrawing after End")
	}
}

func TestSpriteBatchImmediateOutsideBegin(t *testing.T) {
	b := NewSpriteBatch(ebiten.NewImage(4, 4))
	b.DrawRect(0, 0, 1, 1, vfx.ColorBlack)
	if b.Len() != 0 || b.DrawCalls() != 1 {
		t.Errorf("Len = %d, DrawCalls = %d; want immediate submit", b.Len(), b.DrawCalls())
	}
}

func TestSpriteBatchIgnoresNilImage(t *testing.T) {
	b := NewSpriteBatch(ebiten.NewImage(4, 4))
	b.Begin()
	b.DrawImageAt(nil, 0, 0)
	if b.Len() != 0 {
		t.Errorf("Len = %d, want nil image dropped", b.Len())
	}
	b.End()
}

func TestSpriteBatchTransparentRectIsTinted(t *testing.T) {
	b := NewSpriteBatch(ebiten.NewImage(4, 4))
	b.Begin()
	b.DrawRect(0, 0, 4, 4, vfx.ColorTransparent)
	b.DrawImageAt(ebiten.NewImage(2, 2), 0, 0)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if rect := b.commands[0]; !rect.tint || rect.color != vfx.ColorTransparent {
		t.Errorf("rect command = %+v, want tinted transparent", rect)
	}
	if b.commands[1].tint {
		t.Error("DrawImageAt should draw untinted")
	}
	b.End()
}

func TestBlendModeEbitenBlend(t *testing.T) {
	cases := map[BlendMode]ebiten.Blend{
		BlendNormal:   ebiten.BlendSourceOver,
		BlendAdd:      ebiten.BlendLighter,
		BlendErase:    ebiten.BlendDestinationOut,
		BlendNone:     ebiten.BlendCopy,
		BlendMode(99): ebiten.BlendSourceOver,
	}
	for mode, want := range cases {
		if got := mode.EbitenBlend(); got != want {
			t.Errorf("BlendMode(%d).EbitenBlend() = %+v, want %+v", mode, got, want)
		}
	}
}

// --- Effects ---

func TestColorMatrixIdentity(t *testing.T) {
	f := NewColorMatrix()
	for i, v := range f.Matrix {
		want := 0.0
		if i == 0 || i == 6 || i == 12 || i == 18 {
			want = 1
		}
		if v != want {
			t.Errorf("Matrix[%d] = %f, want %f", i, v, want)
		}
	}
}

func TestColorMatrixPresets(t *testing.T) {
	f := NewColorMatrix()
	f.SetBrightness(0.5)
	if f.Matrix[4] != 0.5 || f.Matrix[9] != 0.5 || f.Matrix[14] != 0.5 || f.Matrix[19] != 0 {
		t.Error("brightness offsets should be in the RGB offset column only")
	}
	f.SetContrast(2)
	if f.Matrix[0] != 2 || f.Matrix[4] != -0.5 {
		t.Errorf("contrast = %v, %v; want 2, -0.5", f.Matrix[0], f.Matrix[4])
	}
	f.SetSaturation(0)
	if f.Matrix[0] != 0.299 || f.Matrix[6] != 0.587 || f.Matrix[12] != 0.114 {
		t.Error("zero saturation should produce luminance weights on the diagonal")
	}
	f.SetInvert()
	if f.Matrix[0] != -1 || f.Matrix[4] != 1 || f.Matrix[18] != 1 {
		t.Error("invert should negate RGB and keep alpha")
	}
	f.Reset()
	if f.Matrix != NewColorMatrix().Matrix {
		t.Error("Reset should restore the identity")
	}
}

func TestNewBlurNegativeRadius(t *testing.T) {
	if f := NewBlur(-5); f.Radius != 0 {
		t.Errorf("negative radius should clamp to 0, got %d", f.Radius)
	}
}

func TestPaletteDefaultGrayscale(t *testing.T) {
	f := NewPalette()
	if f.Palette[0] != (vfx.Color{R: 0, G: 0, B: 0, A: 1}) || f.Palette[255] != vfx.ColorWhite {
		t.Error("default palette should run from black to white")
	}
	if !f.paletteDirty {
		t.Error("new palette should be dirty")
	}
	f.paletteDirty = false
	f.SetPalette([256]vfx.Color{})
	if !f.paletteDirty {
		t.Error("SetPalette should mark the texture dirty")
	}
}

func TestPaletteCycle(t *testing.T) {
	f := NewPalette()
	f.Update(1)
	if f.CycleOffset != 0 {
		t.Error("zero CycleSpeed should not cycle")
	}
	f.CycleSpeed = 100
	f.Update(3)
	if f.CycleOffset != 44 {
		t.Errorf("CycleOffset = %v, want 44 (300 mod 256)", f.CycleOffset)
	}
}

func TestPaletteRows(t *testing.T) {
	var pal [256]vfx.Color
	pal[0] = vfx.Color{R: 1, A: 1}
	pal[255] = vfx.Color{B: 1, A: 1}
	buf := paletteRows(nil, &pal, 2, 3)
	if len(buf) != 2*3*4 {
		t.Fatalf("len = %d, want %d", len(buf), 2*3*4)
	}
	// x=0 samples entry 64, x=1 samples entry 192; both are zero colours.
	for row := 0; row < 3; row++ {
		if buf[row*8+3] != 0 {
			t.Errorf("row %d alpha = %d, want 0", row, buf[row*8+3])
		}
	}
	buf = paletteRows(buf, &pal, 256, 1)
	if buf[0] != 255 || buf[3] != 255 || buf[255*4+2] != 255 {
		t.Error("full-width palette should map pixel i to entry i")
	}
}

func TestCustomShaderNil(t *testing.T) {
	f := NewCustomShader(nil)
	err := f.Apply(ebiten.NewImage(2, 2), ebiten.NewImage(2, 2))
	if !errors.Is(err, errNilShader) {
		t.Errorf("err = %v, want errNilShader", err)
	}
}

func TestCustomShaderFailureDropsFrame(t *testing.T) {
	l, err := NewLayer(LayerConfig{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	_ = l.AddEffect(NewCustomShader(nil))
	err = l.Draw(ebiten.NewImage(8, 8), func(*ebiten.Image) {})
	if !errors.Is(err, vfx.ErrEffectApplication) || !errors.Is(err, errNilShader) {
		t.Errorf("err = %v, want effect error wrapping errNilShader", err)
	}
}

func TestEffectsToggle(t *testing.T) {
	effects := []Effect{
		NewPassthrough(), NewColorMatrix(), NewBlur(4), NewBloom(), NewVignette(), NewCRT(),
		NewChromaticAberration(2), NewPixelate(4), NewOutline(1, vfx.ColorWhite),
		NewPixelOutline(vfx.ColorWhite), NewPixelInline(vfx.ColorWhite), NewPalette(),
		NewCustomShader(nil), NewMotionBlur(0.5),
	}
	for _, e := range effects {
		tg, ok := e.(interface {
			vfx.Toggler
			SetEnabled(bool)
		})
		if !ok {
			t.Errorf("%T does not embed vfx.Toggle", e)
			continue
		}
		tg.SetEnabled(false)
		if tg.Enabled() {
			t.Errorf("%T still enabled", e)
		}
	}
}

func TestCRTUpdate(t *testing.T) {
	f := NewCRT()
	f.Update(0.5)
	f.Update(0.25)
	if f.Time != 0.75 {
		t.Errorf("Time = %v, want 0.75", f.Time)
	}
}

// --- Layer ---

func TestLayerFollowsScreenSize(t *testing.T) {
	l, err := NewLayer(LayerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Dispose()

	var target *ebiten.Image
	screen := ebiten.NewImage(40, 30)
	if err := l.Draw(screen, func(img *ebiten.Image) { target = img }); err != nil {
		t.Fatal(err)
	}
	if target == screen {
		t.Error("enabled layer should draw into the capture buffer")
	}
	if sz := target.Bounds().Size(); sz != image.Pt(40, 30) {
		t.Errorf("capture size = %v, want 40x30", sz)
	}
	if m := l.Manager(); m.Width() != 40 || m.Height() != 30 || m.Stats().Frame != 1 {
		t.Errorf("manager = %dx%d frame %d", m.Width(), m.Height(), m.Stats().Frame)
	}
	if _, err := l.Image(); err != nil {
		t.Errorf("Image: %v", err)
	}

	if err := l.Draw(ebiten.NewImage(50, 20), func(*ebiten.Image) {}); err != nil {
		t.Fatal(err)
	}
	if m := l.Manager(); m.Width() != 50 || m.Height() != 20 {
		t.Errorf("after resize manager = %dx%d, want 50x20", m.Width(), m.Height())
	}
}

func TestLayerDisabledDrawsDirect(t *testing.T) {
	l, err := NewLayer(LayerConfig{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	l.Enabled = false
	screen := ebiten.NewImage(8, 8)
	var target *ebiten.Image
	_ = l.Draw(screen, func(img *ebiten.Image) { target = img })
	if target != screen {
		t.Error("disabled layer should draw straight to the screen")
	}
	if l.Manager().Stats().Frame != 0 {
		t.Error("disabled layer should not run the pipeline")
	}
}

func TestLayerBatchCaptured(t *testing.T) {
	l, err := NewLayer(LayerConfig{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	screen := ebiten.NewImage(8, 8)
	var during *ebiten.Image
	_ = l.Draw(screen, func(img *ebiten.Image) {
		during = l.Batch().Target()
		l.Batch().DrawRect(0, 0, 8, 8, vfx.ColorWhite)
	})
	if during == screen {
		t.Error("batch should target the capture buffer inside Draw")
	}
	if l.Batch().Target() != screen {
		t.Error("batch should be restored to the screen after Draw")
	}
}

func TestLayerRejectsNonRGBA8(t *testing.T) {
	_, err := NewLayer(LayerConfig{Format: vfx.RGBA16, Width: 4, Height: 4})
	if !errors.Is(err, vfx.ErrAllocation) {
		t.Errorf("err = %v, want ErrAllocation", err)
	}
}

func TestLayerDisposeTwice(t *testing.T) {
	l, _ := NewLayer(LayerConfig{Width: 4, Height: 4})
	if err := l.Dispose(); err != nil {
		t.Fatal(err)
	}
	if err := l.Dispose(); !errors.Is(err, vfx.ErrInvalidState) {
		t.Errorf("second Dispose err = %v, want ErrInvalidState", err)
	}
}

// --- Screenshots ---

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-bloom", "after-bloom"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueue(t *testing.T) {
	l, _ := NewLayer(LayerConfig{})
	if l.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", l.ScreenshotDir)
	}
	l.Screenshot("a")
	l.Screenshot("b")
	if len(l.screenshot) != 2 || l.screenshot[0] != "a" || l.screenshot[1] != "b" {
		t.Errorf("queue = %v, want [a b]", l.screenshot)
	}
}

func TestScreenshotDroppedWhenDisabled(t *testing.T) {
	l, _ := NewLayer(LayerConfig{Width: 8, Height: 8, ScreenshotDir: t.TempDir()})
	l.Enabled = false
	l.Screenshot("a")
	_ = l.Draw(ebiten.NewImage(8, 8), func(*ebiten.Image) {})
	if len(l.screenshot) != 0 {
		t.Errorf("queue = %v, want empty after a disabled Draw", l.screenshot)
	}
	l.Enabled = true
	l.Screenshot("b")
	if len(l.screenshot) != 1 || l.screenshot[0] != "b" {
		t.Errorf("queue = %v, want [b]", l.screenshot)
	}
}

func TestUnpremultiply(t *testing.T) {
	px := []byte{
		100, 50, 0, 200, // half-ish alpha
		255, 255, 255, 255,
		0, 0, 0, 0,
	}
	img := unpremultiply(px, 3, 1)
	want := []byte{127, 63, 0, 200, 255, 255, 255, 255, 0, 0, 0, 0}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("Pix = %v, want %v", img.Pix, want)
		}
	}
}

func TestWritePNGBadPath(t *testing.T) {
	err := writePNG(t.TempDir()+"/missing/dir/x.png", image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	if err == nil || !strings.Contains(err.Error(), "create") {
		t.Errorf("err = %v, want create error", err)
	}
}

func TestOverlayText(t *testing.T) {
	if got := overlayText(60, 60, nil); got != "FPS: 60.0\nTPS: 60.0" {
		t.Errorf("overlayText = %q", got)
	}
	st := &vfx.FrameStats{Applied: 3, ApplyTime: 2500 * time.Microsecond}
	if got := overlayText(59.5, 60, st); !strings.HasSuffix(got, "Effects: 3 (2.5ms)") {
		t.Errorf("overlayText = %q", got)
	}
}

// --- Run shell ---

type recordScene struct {
	targets []*ebiten.Image
}

func (s *recordScene) Update() error { return nil }

func (s *recordScene) Draw(target *ebiten.Image) { s.targets = append(s.targets, target) }

func TestGameShellFallsBackOnEffectFailure(t *testing.T) {
	l, err := NewLayer(LayerConfig{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Dispose()
	_ = l.AddEffect(NewCustomShader(nil))

	scene := &recordScene{}
	g := &gameShell{scene: scene, layer: l}
	screen := ebiten.NewImage(8, 8)
	g.Draw(screen)

	if g.err != nil {
		t.Errorf("effect failure should not stop the game, got %v", g.err)
	}
	if len(scene.targets) != 2 {
		t.Fatalf("scene drawn %d times, want capture then fallback", len(scene.targets))
	}
	if scene.targets[1] != screen {
		t.Error("fallback should draw the scene straight to the screen")
	}
}
