// Command vfxbake applies an effect chain to PNG images on the CPU.
//
//	vfxbake -chain crt.toml -out baked/ sprites/*.png
//	vfxbake -chain bloom.yaml -out baked/ -watch sprites/
//
// Inputs may be files or directories; directories contribute their *.png
// files. With -watch, vfxbake keeps running and re-bakes an image when it
// changes, or every image when the chain file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phanxgames/vfx"
)

type options struct {
	chain   string
	out     string
	jobs    int
	watch   bool
	verbose bool
	inputs  []string
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("vfxbake", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.chain, "chain", "", "effect chain file (.toml, .yaml or .yml)")
	fs.StringVar(&o.out, "out", "baked", "output directory")
	fs.IntVar(&o.jobs, "j", runtime.GOMAXPROCS(0), "images processed in parallel")
	fs.BoolVar(&o.watch, "watch", false, "re-bake on changes until interrupted")
	fs.BoolVar(&o.verbose, "v", false, "log pipeline activity")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: vfxbake -chain FILE [-out DIR] [-j N] [-watch] [-v] INPUT...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.inputs = fs.Args()
	if o.chain == "" || len(o.inputs) == 0 {
		fs.Usage()
		return nil, errUsage
	}
	if o.jobs < 1 {
		o.jobs = 1
	}
	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if o.verbose {
		vfx.SetLogger(log)
		defer vfx.SetLogger(nil)
	}

	b, err := newBaker(o.chain, o.out, log)
	if err != nil {
		return err
	}
	files, err := collectInputs(o.inputs)
	if err != nil {
		return err
	}
	if err := b.bakeAll(ctx, files, o.jobs); err != nil {
		if !o.watch {
			return err
		}
		log.Warn("bake failed", slog.Any("err", err))
	}
	if !o.watch {
		return nil
	}
	return b.watch(ctx, o.inputs, o.jobs)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "vfx: %v\n", err)
		os.Exit(1)
	}
}
