package ebitenvfx

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/vfx"
)

// FPSOverlay displays the current FPS, TPS and effect pipeline stats in the
// top-left corner. The text is redrawn every ~0.5 seconds.
type FPSOverlay struct {
	img        *ebiten.Image
	lastUpdate float64
	op         ebiten.DrawImageOptions
}

// NewFPSOverlay creates an overlay.
func NewFPSOverlay() *FPSOverlay {
	// 160x48 is enough for "FPS: 60.0\nTPS: 60.0\nEffects: 12 (3.2ms)".
	return &FPSOverlay{img: ebiten.NewImage(160, 48), lastUpdate: 0.5}
}

// Update refreshes the text when due. stats may be nil.
func (o *FPSOverlay) Update(dt float64, stats *vfx.FrameStats) {
	o.lastUpdate += dt
	if o.lastUpdate < 0.5 {
		return
	}
	o.lastUpdate = 0

	o.img.Clear()
	// Semi-transparent background for readability.
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, overlayText(ebiten.ActualFPS(), ebiten.ActualTPS(), stats))
}

// Draw draws the overlay onto screen.
func (o *FPSOverlay) Draw(screen *ebiten.Image) {
	o.op.GeoM.Reset()
	screen.DrawImage(o.img, &o.op)
}

// Dispose frees the overlay image.
func (o *FPSOverlay) Dispose() { o.img.Deallocate() }

func overlayText(fps, tps float64, stats *vfx.FrameStats) string {
	s := fmt.Sprintf("FPS: %.1f\nTPS: %.1f", fps, tps)
	if stats == nil {
		return s
	}
	s += fmt.Sprintf("\nEffects: %d", stats.Applied)
	if stats.ApplyTime > 0 {
		s += fmt.Sprintf(" (%.1fms)", float64(stats.ApplyTime.Microseconds())/1000)
	}
	return s
}
