package ebitenvfx

import (
	"errors"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/vfx"
)

// Scene is drawn through the effect layer by Run.
type Scene interface {
	// Update advances the scene by one tick.
	Update() error
	// Draw renders the scene into target.
	Draw(target *ebiten.Image)
}

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Background is filled into the capture buffer before the scene draws.
	Background vfx.Color
	// ShowFPS draws an FPS and pipeline stats overlay above the effects.
	ShowFPS bool
	// DisableEffects starts with the layer switched off. F1 toggles it at
	// runtime.
	DisableEffects bool
	// Debug collects per-effect timings.
	Debug bool
}

// Run opens a window and runs scene through an effect layer with the given
// effects until the window closes or the scene returns an error. F1 toggles
// the effects; F12 saves a screenshot of the processed frame.
func Run(scene Scene, effects []Effect, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	layer, err := NewLayer(LayerConfig{Debug: cfg.Debug || cfg.ShowFPS})
	if err != nil {
		return err
	}
	defer layer.Dispose()
	if err := layer.AddEffect(effects...); err != nil {
		return err
	}
	layer.Enabled = !cfg.DisableEffects

	g := &gameShell{scene: scene, layer: layer, cfg: cfg}
	if cfg.ShowFPS {
		g.fps = NewFPSOverlay()
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// gameShell adapts a Scene and a Layer to ebiten.Game.
type gameShell struct {
	scene Scene
	layer *Layer
	cfg   RunConfig
	fps   *FPSOverlay
	err   error
}

func (g *gameShell) Update() error {
	if g.err != nil {
		return g.err
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.layer.Enabled = !g.layer.Enabled
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.layer.Screenshot("frame")
	}
	dt := 1 / float32(ebiten.TPS())
	if err := g.layer.Update(dt); err != nil {
		return err
	}
	if g.fps != nil {
		st := g.layer.Manager().Stats()
		g.fps.Update(float64(dt), &st)
	}
	return g.scene.Update()
}

func (g *gameShell) Draw(screen *ebiten.Image) {
	bg := g.cfg.Background
	err := g.layer.Draw(screen, func(target *ebiten.Image) {
		if bg != (vfx.Color{}) {
			target.Fill(bg.RGBA())
		}
		g.scene.Draw(target)
	})
	switch {
	case err == nil:
	case errors.Is(err, vfx.ErrEffectApplication):
		// Frame dropped; the manager already logged it. Show it unprocessed.
		if bg != (vfx.Color{}) {
			screen.Fill(bg.RGBA())
		}
		g.scene.Draw(screen)
	default:
		vfx.Logger().Error("ebitenvfx: effect layer failed", slog.Any("err", err))
		g.err = err
	}
	if g.fps != nil {
		g.fps.Draw(screen)
	}
}

func (g *gameShell) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
