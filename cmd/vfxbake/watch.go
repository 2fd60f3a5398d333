package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a file must be quiet before it is re-baked. Editors
// often write a file in several steps.
const settle = 150 * time.Millisecond

// watch re-bakes inputs as they change until ctx is done. A change to the
// chain file reloads it and re-bakes everything.
func (b *baker) watch(ctx context.Context, inputs []string, jobs int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	f := newWatchFilter(b.chainPath, b.outDir, inputs)
	dirs := f.watchDirs()
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	b.log.Info("watching", slog.Int("dirs", len(dirs)))

	pending := map[string]bool{}
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("watch", slog.Any("err", err))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if name := filepath.Clean(ev.Name); f.wants(name) {
				pending[name] = true
				timer.Reset(settle)
			}

		case <-timer.C:
			files, all := drain(pending, f.chainPath)
			if all {
				if err := b.reload(); err != nil {
					b.log.Warn("chain reload failed", slog.Any("err", err))
					continue
				}
				every, err := collectInputs(inputs)
				if err != nil {
					b.log.Warn("watch", slog.Any("err", err))
					continue
				}
				files = every
			}
			if err := b.bakeAll(ctx, files, jobs); err != nil {
				b.log.Warn("bake failed", slog.Any("err", err))
			}
		}
	}
}

// watchFilter decides which file events trigger a bake.
type watchFilter struct {
	chainPath string
	outDir    string
	// explicit holds input files named on the command line; inputDirs holds
	// input directories, whose PNGs are all baked.
	explicit  map[string]bool
	inputDirs map[string]bool
}

func newWatchFilter(chainPath, outDir string, inputs []string) *watchFilter {
	f := &watchFilter{
		chainPath: filepath.Clean(chainPath),
		outDir:    filepath.Clean(outDir),
		explicit:  map[string]bool{},
		inputDirs: map[string]bool{},
	}
	for _, in := range inputs {
		if fi, err := os.Stat(in); err == nil && fi.IsDir() {
			f.inputDirs[filepath.Clean(in)] = true
		} else {
			f.explicit[filepath.Clean(in)] = true
		}
	}
	return f
}

// watchDirs lists the directories to watch. Directories rather than files
// are watched so editors that replace files by renaming keep being tracked.
func (f *watchFilter) watchDirs() []string {
	set := map[string]bool{filepath.Dir(f.chainPath): true}
	for d := range f.inputDirs {
		set[d] = true
	}
	for name := range f.explicit {
		set[filepath.Dir(name)] = true
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// wants reports whether a change to the cleaned path name needs a bake.
// Siblings of explicit inputs and of the chain file are ignored.
func (f *watchFilter) wants(name string) bool {
	if filepath.Dir(name) == f.outDir {
		return false
	}
	if name == f.chainPath {
		return true
	}
	return isPNG(name) && (f.explicit[name] || f.inputDirs[filepath.Dir(name)])
}

// drain empties pending and reports whether the chain file was among the
// changes.
func drain(pending map[string]bool, chainPath string) (files []string, all bool) {
	for name := range pending {
		if name == chainPath {
			all = true
		} else {
			files = append(files, name)
		}
		delete(pending, name)
	}
	return files, all
}
