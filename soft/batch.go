package soft

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// commandType identifies the kind of a queued draw.
type commandType uint8

const (
	commandRect commandType = iota
	commandImage
)

// drawCommand is one queued draw, submitted to the target on End.
type drawCommand struct {
	Type  commandType
	Rect  image.Rectangle
	Color color.Color
	Image image.Image
	GeoM  f64.Aff3
}

// Batch queues draw calls between Begin and End and submits them to the
// current target, in order, on End. Draw calls made outside Begin/End are
// submitted immediately. Batch implements vfx.Batch.
type Batch struct {
	target   draw.Image
	drawing  bool
	commands []drawCommand
}

// NewBatch creates a batch drawing into target.
func NewBatch(target draw.Image) *Batch {
	return &Batch{target: target}
}

// Begin starts queueing.
func (b *Batch) Begin() { b.drawing = true }

// End submits queued commands to the target and stops queueing.
func (b *Batch) End() {
	b.flush()
	b.drawing = false
}

// IsDrawing reports whether the batch is between Begin and End.
func (b *Batch) IsDrawing() bool { return b.drawing }

// Target returns the image draws are submitted to.
func (b *Batch) Target() draw.Image { return b.target }

// SetTarget changes the draw target. Commands already queued go to the new
// target; callers flush with End first.
func (b *Batch) SetTarget(target draw.Image) { b.target = target }

// DrawRect fills r with c, composited source-over.
func (b *Batch) DrawRect(r image.Rectangle, c color.Color) {
	b.push(drawCommand{Type: commandRect, Rect: r, Color: c})
}

// DrawImage draws img with its top-left corner at (x, y).
func (b *Batch) DrawImage(img image.Image, x, y int) {
	b.DrawImageTransform(img, f64.Aff3{1, 0, float64(x), 0, 1, float64(y)})
}

// DrawImageTransform draws img through the affine transform m, which maps
// source pixels to target pixels.
func (b *Batch) DrawImageTransform(img image.Image, m f64.Aff3) {
	b.push(drawCommand{Type: commandImage, Image: img, GeoM: m})
}

func (b *Batch) push(cmd drawCommand) {
	if !b.drawing {
		b.submit(&cmd)
		return
	}
	b.commands = append(b.commands, cmd)
}

func (b *Batch) flush() {
	for i := range b.commands {
		b.submit(&b.commands[i])
	}
	clear(b.commands)
	b.commands = b.commands[:0]
}

func (b *Batch) submit(cmd *drawCommand) {
	if b.target == nil {
		return
	}
	switch cmd.Type {
	case commandRect:
		draw.Draw(b.target, cmd.Rect, image.NewUniform(cmd.Color), image.Point{}, draw.Over)
	case commandImage:
		m := cmd.GeoM
		if m[0] == 1 && m[1] == 0 && m[3] == 0 && m[4] == 1 &&
			m[2] == float64(int(m[2])) && m[5] == float64(int(m[5])) {
			sr := cmd.Image.Bounds()
			at := image.Pt(int(m[2]), int(m[5]))
			draw.Draw(b.target, sr.Sub(sr.Min).Add(at), cmd.Image, sr.Min, draw.Over)
			return
		}
		draw.BiLinear.Transform(b.target, m, cmd.Image, cmd.Image.Bounds(), draw.Over, nil)
	}
}
