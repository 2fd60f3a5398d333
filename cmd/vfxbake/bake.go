package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/vfx/chain"
	"github.com/phanxgames/vfx/soft"
)

// baker renders images through one chain spec. The spec is swapped
// atomically when the chain file is reloaded.
type baker struct {
	chainPath string
	outDir    string
	log       *slog.Logger
	registry  *chain.Registry[draw.Image]

	mu   sync.RWMutex
	spec *chain.Spec
}

func newBaker(chainPath, outDir string, log *slog.Logger) (*baker, error) {
	b := &baker{
		chainPath: chainPath,
		outDir:    outDir,
		log:       log,
		registry:  soft.NewRegistry(),
	}
	if err := b.reload(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	return b, nil
}

// reload reads the chain file and checks that every effect can be built.
// On failure the previous spec stays in use.
func (b *baker) reload() error {
	spec, err := chain.Load(b.chainPath)
	if err != nil {
		return err
	}
	if _, err := b.registry.Build(spec); err != nil {
		return fmt.Errorf("%s: %w", b.chainPath, err)
	}
	b.mu.Lock()
	b.spec = spec
	b.mu.Unlock()
	b.log.Debug("chain loaded", slog.String("path", b.chainPath), slog.Int("effects", len(spec.Effects)))
	return nil
}

func (b *baker) currentSpec() *chain.Spec {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.spec
}

// outputPath maps an input file to its file in the output directory.
func (b *baker) outputPath(in string) string {
	return filepath.Join(b.outDir, filepath.Base(in))
}

// bakeFile processes one image. Every call builds its own effects, so
// stateful effects never leak between images or goroutines.
func (b *baker) bakeFile(path string) error {
	t0 := time.Now()
	src, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	out, err := bakeImage(src, b.currentSpec(), b.registry)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	dst := b.outputPath(path)
	if err := imgio.Save(dst, out, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save %s: %w", dst, err)
	}
	b.log.Info("baked", slog.String("in", path), slog.String("out", dst), slog.Duration("took", time.Since(t0)))
	return nil
}

// bakeAll processes files with at most jobs running at once. The first
// failure cancels the files not yet started.
func (b *baker) bakeAll(ctx context.Context, files []string, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return b.bakeFile(f)
		})
	}
	return g.Wait()
}

// bakeImage runs one frame of the chain over src and returns the result at
// src's size. When the spec fixes a buffer size the image is scaled into
// the buffers and back out again.
func bakeImage(src image.Image, spec *chain.Spec, reg *chain.Registry[draw.Image]) (*image.RGBA, error) {
	effects, err := reg.Build(spec)
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	cfg := spec.Config()
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = w, h
	}

	screen := soft.NewScreen(w, h)
	batch := soft.NewBatch(screen.Target)
	m, _, err := soft.NewManager(screen, batch, cfg)
	if err != nil {
		return nil, err
	}
	defer m.Dispose()
	if err := m.AddEffect(effects...); err != nil {
		return nil, err
	}

	batch.Begin()
	defer batch.End()
	if err := m.CleanUpBuffers(); err != nil {
		return nil, err
	}
	if err := m.BeginInputCapture(); err != nil {
		return nil, err
	}
	sx := float64(cfg.Width) / float64(w)
	sy := float64(cfg.Height) / float64(h)
	batch.DrawImageTransform(src, f64.Aff3{
		sx, 0, -float64(bounds.Min.X) * sx,
		0, sy, -float64(bounds.Min.Y) * sy,
	})
	if err := m.EndInputCapture(); err != nil {
		return nil, err
	}
	if err := m.ApplyEffects(); err != nil {
		return nil, err
	}
	if err := m.RenderToScreen(); err != nil {
		return nil, err
	}
	return screen.Target.(*image.RGBA), nil
}

// collectInputs expands directories to their PNG files. The result is
// sorted and free of duplicates.
func collectInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, in)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(in, "*.png"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
