package ebitenvfx

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/vfx"
)

// LayerConfig configures a Layer.
type LayerConfig struct {
	// Format is the work buffer format. Only vfx.RGBA8 is supported on
	// Ebitengine; the zero value selects it.
	Format vfx.PixelFormat
	// Width and Height fix the buffer size. When zero the buffers follow the
	// size of the image passed to Draw.
	Width, Height int
	// Blending composites the result over the screen instead of replacing it.
	Blending bool
	// Debug collects per-effect timings, see vfx.Config.Debug.
	Debug bool
	// ScreenshotDir is where Screenshot writes PNG files. Defaults to
	// "screenshots".
	ScreenshotDir string
}

// Layer runs a pipeline over whatever is drawn inside its Draw call. It is
// the piece a game or widget embeds: one Draw per frame replaces the manual
// capture/apply/render sequence.
type Layer struct {
	// Enabled switches the effects on. A disabled layer draws straight to
	// the screen without capturing.
	Enabled bool
	// ScreenshotDir is where queued screenshots are written.
	ScreenshotDir string

	m          *Manager
	dev        *Device
	screen     *Screen
	batch      *SpriteBatch
	fixedSize  bool
	screenshot []string
}

// NewLayer creates an enabled layer.
func NewLayer(cfg LayerConfig) (*Layer, error) {
	l := &Layer{
		Enabled:       true,
		ScreenshotDir: cfg.ScreenshotDir,
		dev:           &Device{},
		screen:        &Screen{},
		batch:         NewSpriteBatch(nil),
		fixedSize:     cfg.Width > 0 && cfg.Height > 0,
	}
	if l.ScreenshotDir == "" {
		l.ScreenshotDir = "screenshots"
	}
	m, err := vfx.NewManager[*ebiten.Image](l.dev, l.screen, l.batch, vfx.Config{
		Format:   cfg.Format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Blending: cfg.Blending,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	l.m = m
	return l, nil
}

// Manager returns the underlying pipeline.
func (l *Layer) Manager() *Manager { return l.m }

// Batch returns the sprite batch that Draw redirects into the capture
// buffer. Draws queued on it inside the draw callback are captured.
func (l *Layer) Batch() *SpriteBatch { return l.batch }

// AddEffect appends effects to the chain.
func (l *Layer) AddEffect(effects ...Effect) error { return l.m.AddEffect(effects...) }

// RemoveEffect removes the first occurrence of e from the chain.
func (l *Layer) RemoveEffect(e Effect) error { return l.m.RemoveEffect(e) }

// Update advances time-dependent effects by dt seconds.
func (l *Layer) Update(dt float32) error { return l.m.Update(dt) }

// Draw runs one frame: draw renders the scene into target, which is the
// capture buffer while effects are enabled and screen otherwise, and the
// processed result is composited onto screen.
func (l *Layer) Draw(screen *ebiten.Image, draw func(target *ebiten.Image)) error {
	l.screen.Bind(screen)
	l.batch.SetTarget(screen)
	if !l.Enabled {
		draw(screen)
		l.dropScreenshots()
		return nil
	}

	if !l.fixedSize {
		vp := l.screen.Viewport()
		if vp.Dx() != l.m.Width() || vp.Dy() != l.m.Height() {
			if err := l.m.Resize(vp.Dx(), vp.Dy()); err != nil {
				return err
			}
		}
	}

	l.batch.Begin()
	defer l.batch.End()

	if err := l.m.CleanUpBuffers(); err != nil {
		return err
	}
	if err := l.m.BeginInputCapture(); err != nil {
		return err
	}
	target, err := l.m.InputTexture()
	if err != nil {
		return err
	}
	draw(target)
	if err := l.m.EndInputCapture(); err != nil {
		return err
	}
	if err := l.m.ApplyEffects(); err != nil {
		return err
	}
	if err := l.m.RenderToScreen(); err != nil {
		return err
	}
	l.flushScreenshots()
	return nil
}

// Image returns the processed frame from the last Draw, for compositing
// into another layer or widget.
func (l *Layer) Image() (*ebiten.Image, error) { return l.m.ResultTexture() }

// Dispose releases the work buffers. Effects are not disposed.
func (l *Layer) Dispose() error { return l.m.Dispose() }

// Screenshot queues a labeled screenshot of the processed frame, captured at
// the end of the next Draw. The queue is discarded if that Draw runs with the
// layer disabled. The PNG is written to ScreenshotDir with a
// timestamped filename. Safe to call from Update or Draw.
func (l *Layer) Screenshot(label string) {
	l.screenshot = append(l.screenshot, label)
}

// dropScreenshots discards the queue. A disabled layer has no processed
// frame to save.
func (l *Layer) dropScreenshots() {
	if len(l.screenshot) == 0 {
		return
	}
	vfx.Logger().Debug("ebitenvfx: screenshots dropped, layer disabled",
		slog.Int("queued", len(l.screenshot)))
	l.screenshot = l.screenshot[:0]
}

// flushScreenshots writes the result texture once for every queued label.
func (l *Layer) flushScreenshots() {
	if len(l.screenshot) == 0 {
		return
	}
	defer func() { l.screenshot = l.screenshot[:0] }()

	res, err := l.m.ResultTexture()
	if err != nil {
		return
	}
	if err := os.MkdirAll(l.ScreenshotDir, 0o755); err != nil {
		vfx.Logger().Warn("ebitenvfx: screenshot", slog.Any("err", err))
		return
	}

	bounds := res.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	res.ReadPixels(pixels)
	img := unpremultiply(pixels, w, h)

	stamp := time.Now().Format("20060102_150405")
	for _, label := range l.screenshot {
		path := filepath.Join(l.ScreenshotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			vfx.Logger().Warn("ebitenvfx: screenshot", slog.Any("err", err))
			continue
		}
		vfx.Logger().Debug("ebitenvfx: screenshot written", slog.String("path", path))
	}
}

// unpremultiply converts premultiplied RGBA bytes to straight-alpha NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
