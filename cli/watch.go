package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/ledgerfold/beancore/ledger"
	"github.com/ledgerfold/beancore/loader"
)

// WatchCmd re-runs check against a beancount file every time it (or one of
// its includes) changes on disk, printing the same pass/fail summary as
// check until interrupted.
type WatchCmd struct {
	File string `help:"Beancount input filename to watch." arg:""`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	absFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := map[string]bool{}
	if err := cmd.watchFile(watcher, absFile, watched); err != nil {
		return err
	}

	printInfof(ctx.Stdout, "Watching %s for changes (Ctrl+C to stop)", absFile)
	cmd.recheck(ctx, absFile, watcher, watched)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			cmd.recheck(ctx, absFile, watcher, watched)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(ctx.Stderr, fmt.Sprintf("watcher error: %v", err))
		}
	}
}

// watchFile adds a file's directory to the watcher; fsnotify watches
// directories rather than individual files so editors that replace a file
// via rename-and-move are still observed.
func (cmd *WatchCmd) watchFile(watcher *fsnotify.Watcher, file string, watched map[string]bool) error {
	dir := filepath.Dir(file)
	if watched[dir] {
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	watched[dir] = true
	return nil
}

// recheck loads and validates the root file, printing a summary, and adds
// any newly discovered includes to the watch set.
func (cmd *WatchCmd) recheck(ctx *kong.Context, absFile string, watcher *fsnotify.Watcher, watched map[string]bool) {
	runCtx := context.Background()

	ldr := loader.New(loader.WithFollowIncludes())
	tree, err := ldr.Load(runCtx, absFile)
	if err != nil {
		printError(ctx.Stderr, fmt.Sprintf("parse error: %v", err))
		return
	}

	for _, include := range tree.Includes {
		path := include.Filename
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(absFile), path)
		}
		_ = cmd.watchFile(watcher, path, watched)
	}

	l := ledger.New()
	if err := l.Process(runCtx, tree); err != nil {
		var validationErrors *ledger.ValidationErrors
		if stdErrors.As(err, &validationErrors) {
			printError(ctx.Stderr, fmt.Sprintf("%d validation error(s) found", len(validationErrors.Errors)))
			return
		}
		printError(ctx.Stderr, err.Error())
		return
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed (%s)", time.Now().Format("15:04:05")))
}
