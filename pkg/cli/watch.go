package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/palletdiff/pkg/observability"
	"github.com/platinummonkey/palletdiff/pkg/storage"
)

// watch re-runs the comparison whenever one of the inputs is written,
// created or renamed into place. It returns when ctx is done.
func (a *app) watch(ctx context.Context, out, errOut io.Writer, oldRef, newRef string, debounce time.Duration) error {
	log := a.watchLogger(errOut)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files, so watch the parent directories.
	files := make(map[string]struct{}, 2)
	for _, ref := range []string{oldRef, newRef} {
		if ref == storage.StdinRef {
			return errors.New("watch mode cannot read standard input")
		}
		path, err := filepath.Abs(a.store.Path(ref))
		if err != nil {
			return err
		}
		files[path] = struct{}{}
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", ref, err)
		}
	}

	run := func() {
		defer observability.RecoverPanic(a.logger, "watch run")

		err := a.compare(ctx, out, oldRef, newRef, true)
		var exitErr *ExitError
		switch {
		case err == nil:
			log.Info("upgrade is safe")
		case errors.As(err, &exitErr):
			log.WithField("exit_code", exitErr.Code).Warn("upgrade needs attention")
		default:
			log.WithError(err).Error("comparison failed")
		}
	}

	log.WithFields(logrus.Fields{"old": oldRef, "new": newRef}).Info("watching for changes")
	run()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped watching")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := files[name]; !watched {
				continue
			}
			log.WithField("file", event.Name).Debug("change detected")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			log.Info("inputs changed, comparing again")
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}

func (a *app) watchLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if level, err := logrus.ParseLevel(a.cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if observability.LogFormat(a.cfg.Log.Format) == observability.FormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: !a.cfg.Output.Color})
	}
	return log
}
