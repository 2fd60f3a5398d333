package vfx

import (
	"log/slog"
	"time"
)

// EffectTiming is the wall time spent submitting one effect.
type EffectTiming struct {
	Name     string
	Duration time.Duration
}

// FrameStats describes the most recent frame run through a Manager. Timings
// are only populated when Config.Debug is set.
type FrameStats struct {
	// Frame counts completed ApplyEffects calls since the manager was created.
	Frame uint64
	// Applied is the number of enabled effects invoked, including one that
	// failed and dropped the frame.
	Applied int
	// Swaps is the number of source/destination role swaps, one per effect
	// that succeeded. It is one less than Applied after a failure.
	Swaps int
	// ResultIndex is the work buffer (0 or 1) holding the result.
	ResultIndex int

	CaptureTime time.Duration
	ApplyTime   time.Duration
	RenderTime  time.Duration
	Effects     []EffectTiming
}

// debugLog writes the frame's stats at debug level.
func (s *FrameStats) debugLog() {
	l := Logger()
	l.Debug("vfx: frame",
		slog.Uint64("frame", s.Frame),
		slog.Int("applied", s.Applied),
		slog.Int("swaps", s.Swaps),
		slog.Int("result", s.ResultIndex),
		slog.Duration("capture", s.CaptureTime),
		slog.Duration("apply", s.ApplyTime),
		slog.Duration("render", s.RenderTime))
	for _, e := range s.Effects {
		l.Debug("vfx: effect", slog.String("name", e.Name), slog.Duration("time", e.Duration))
	}
}
