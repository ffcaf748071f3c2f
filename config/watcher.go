package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/smoother/logging"
)

// Editors often produce several events per save; only the last one within this window triggers a read.
const watchDebounce = 100 * time.Millisecond

// A Watcher is responsible for watching for changes
// to a config from some source and delivering those changes
// to some destination.
type Watcher interface {
	Config() <-chan *Config
	Close() error
}

type fsConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	configCh  chan *Config
	workers   *goutils.StoppableWorkers
}

// NewWatcher returns a Watcher that re-reads the config file at path whenever it is written. A
// config that fails to read or validate is logged and dropped, leaving the last good one in place.
// The directory rather than the file is watched so editors that replace the file on save are
// still seen.
func NewWatcher(ctx context.Context, path string, logger logging.Logger) (Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "watching %q", filepath.Dir(absPath)), fsWatcher.Close())
	}

	watcher := &fsConfigWatcher{
		fsWatcher: fsWatcher,
		configCh:  make(chan *Config),
		workers:   goutils.NewStoppableWorkers(ctx),
	}
	reloadCh := make(chan struct{}, 1)
	debounced := debounce.New(watchDebounce)
	requestReload := func() {
		select {
		case reloadCh <- struct{}{}:
		default:
		}
	}

	watcher.workers.Add(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				debounced(requestReload)
			case <-reloadCh:
				// Read repeats the shared output warning for every reloaded file.
				newConfig, err := Read(ctx, absPath, logger)
				if err != nil {
					logger.Errorw("error reading config after write", "path", absPath, "error", err)
					continue
				}
				select {
				case <-ctx.Done():
					return
				case watcher.configCh <- newConfig:
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("error watching config file", "path", absPath, "error", err)
			}
		}
	})
	return watcher, nil
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.configCh
}

func (w *fsConfigWatcher) Close() error {
	w.workers.Stop()
	return w.fsWatcher.Close()
}
