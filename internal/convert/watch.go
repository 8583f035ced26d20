package convert

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// defaultDebounce coalesces the burst of write events a model save
// produces into one re-export.
const defaultDebounce = 500 * time.Millisecond

// Watcher re-runs an export whenever the job's input files change.
type Watcher struct {
	exporter Exporter
	job      Job
	verify   bool
	debounce time.Duration
}

// NewWatcher returns a watcher for one export job.
func NewWatcher(exporter Exporter, job Job, verify bool) *Watcher {
	return &Watcher{
		exporter: exporter,
		job:      job,
		verify:   verify,
		debounce: defaultDebounce,
	}
}

// Watch runs an initial export, then blocks re-exporting on input
// changes until the context is canceled. The initial export may fail
// without stopping the watch; later successes recover.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch directories, not files: editors and training jobs replace
	// files by rename, which drops file-level watches.
	dirs := map[string]bool{
		filepath.Dir(w.job.ModelFilename):  true,
		filepath.Dir(w.job.ParamsFilename): true,
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	inputs := map[string]bool{
		filepath.Clean(w.job.ModelFilename):  true,
		filepath.Clean(w.job.ParamsFilename): true,
	}

	if err := w.export(ctx); err != nil {
		log.Error().Err(err).Msg("initial export failed")
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !inputs[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("input changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.export(ctx); err != nil {
				log.Error().Err(err).Msg("re-export failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) export(ctx context.Context) error {
	if w.verify {
		return RunVerified(ctx, w.exporter, w.job)
	}
	return Run(ctx, w.exporter, w.job)
}
