package app

import (
	"context"

	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/core/watcher"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"
)

// Watch runs the check once, then again whenever a unit on the classpath
// changes, at most watch.max_runs_per_second times per second. Every outcome
// goes to onRun. Watch blocks until ctx is done.
func (a *App) Watch(ctx context.Context, onRun func(ports.CheckReport, error)) error {
	if onRun == nil {
		return errors.New(errors.CodeValidationError, "watch callback is required")
	}
	if len(a.paths.Classpath) == 0 {
		return errors.New(errors.CodeValidationError, "classpath is empty")
	}

	// A run rescans everything, so batches arriving while one is queued are
	// folded into it.
	changes := make(chan []string, 1)
	w, err := watcher.New(watcher.Options{
		Debounce: a.Config.Watch.Debounce,
		Exclude:  a.Config.Exclude,
		Logger:   a.logger,
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Watch(a.paths.Classpath); err != nil {
		return errors.AddContext(err, errors.CtxOperation, "watch_classpath")
	}

	limiter := util.NewLimiter(a.Config.Watch.MaxRunsPerSecond, 1)
	run := func() {
		report, err := a.RunCheck(ctx)
		onRun(report, err)
	}

	limiter.Allow(1)
	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if d := limiter.Delay(); d > 0 {
				observability.WatchRunsThrottledTotal.Inc()
				a.logger.Debug("throttling watch run", "delay", d)
			}
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			a.logger.Info("classpath changed, re-running checks", "paths", len(paths), "first", paths[0])
			run()
		}
	}
}
