// Package vfx is a post-processing pipeline for 2D renderers. It captures a
// frame's drawing into an off-screen buffer, runs an ordered chain of
// full-screen effects over it, and composites the result onto the screen.
//
// The core is backend-agnostic: [Manager], [Pool], [CaptureSession] and
// [Chain] are generic over the backend's image handle type. Two backends ship
// with the module:
//
//   - vfx/ebitenvfx runs on [Ebitengine] with Kage shader effects.
//   - vfx/soft runs on the CPU over image.RGBA, with effects built on [bild].
//
// # Quick start
//
// With Ebitengine, ebitenvfx.Layer wraps the per-frame protocol:
//
//	layer, _ := ebitenvfx.NewLayer(ebitenvfx.LayerConfig{})
//	layer.AddEffect(ebitenvfx.NewBloom(), ebitenvfx.NewVignette())
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		layer.Draw(screen, func(target *ebiten.Image) {
//			// draw the scene into target
//		})
//	}
//
// For full control drive a [Manager] directly. A frame runs strictly in
// order:
//
//	m.CleanUpBuffers()
//	m.BeginInputCapture()
//	// ... draw through the batch ...
//	m.EndInputCapture()
//	m.ApplyEffects()
//	m.RenderToScreen()
//
// Calls out of order fail with an error matching [ErrInvalidState].
//
// # Ping-pong buffers
//
// The manager owns exactly two work buffers. The captured frame lands in the
// first; each enabled effect reads one buffer and writes the other, after
// which the roles swap. With N enabled effects the result is in buffer N%2.
// An effect never reads and writes the same image.
//
// # Resizing
//
// [Manager.Resize] reallocates both buffers immediately when no frame is in
// flight. Mid-frame requests are deferred and committed at the start of the
// next frame, so the frame being processed is never disturbed.
//
// # Errors
//
// Every error matches exactly one of [ErrAllocation], [ErrInvalidState] or
// [ErrEffectApplication] via errors.Is. An effect failure drops only the
// current frame. An allocation failure leaves the manager unusable until
// [Manager.Dispose].
//
// # Logging
//
// vfx logs through log/slog and is silent by default. Call [SetLogger] to
// see buffer allocations, deferred resizes and, with Config.Debug, per-frame
// timings.
//
// # Animating effects
//
// [TweenParam], [TweenParams] and [TweenColor] animate effect parameters
// with [gween] easing functions.
//
// Chains can also be described in TOML or YAML and built with vfx/chain; the
// vfxbake command applies such a chain to PNG files offline.
//
// [Ebitengine]: https://ebitengine.org
// [bild]: https://github.com/anthonynsimon/bild
// [gween]: https://github.com/tanema/gween
package vfx
