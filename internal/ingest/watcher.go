package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // watched recursively
	Extensions  []string // defaults to constants.AllowedExtensions
	InitialScan bool     // also emit files already present
	Debounce    time.Duration
}

// Watch emits paths of created or rewritten files under the roots until ctx
// is done. Bursts of events for the same path are coalesced for the debounce
// window so half-written files are emitted once.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	exts := extSet(cfg.Extensions)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path, exts) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			logger.Error("ingest.watch.add_failed", "root", root, "err", err)
			return nil, nil, err
		}
	}

	paths := make(chan string, 64)
	errs := make(chan error, 1)
	go func() {
		defer close(paths)
		defer close(errs)
		defer func() { _ = w.Close() }()

		emit := func(p string) bool {
			select {
			case paths <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		var flush <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					// new subdirectories join the watch; files fail Add harmlessly
					_ = w.Add(ev.Name)
				}
				if !allowed(ev.Name, exts) || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)) {
					continue
				}
				pending[ev.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					for p := range pending {
						delete(pending, p)
						if !emit(p) {
							return
						}
					}
					continue
				}
				flush = time.After(cfg.Debounce)
			case <-flush:
				flush = nil
				for p := range pending {
					delete(pending, p)
					if !emit(p) {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("ingest.watch.error", "err", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()
	return paths, errs, nil
}
