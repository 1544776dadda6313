package app

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/pattern"
	"archcheck/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// AnalyzeClasspath parses every unit on the classpath whose name matches one
// of includes. Units are parsed on a bounded worker pool and returned in scan
// order. The first parse failure aborts the call.
func (a *App) AnalyzeClasspath(ctx context.Context, includes []string) ([]classfile.UnitInfo, error) {
	ctx, span := observability.Tracer.Start(ctx, "App.AnalyzeClasspath",
		trace.WithAttributes(attribute.StringSlice("includes", includes)))
	defer span.End()
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	match, err := pattern.Compile(includes...)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "analyze_classpath")
	}
	roots := a.paths.Classpath
	if len(roots) == 0 {
		return nil, errors.New(errors.CodeValidationError, "classpath is empty")
	}

	workers := a.Config.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		slots  []*classfile.UnitInfo
		parsed atomic.Int64
	)
	scanErr := a.source.Scan(gctx, roots, match.Matches, func(name string, in io.Reader) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeMalformedInput, "read unit"), errors.CtxUnit, name)
		}
		slot := new(classfile.UnitInfo)
		slots = append(slots, slot)
		g.Go(func() error {
			began := time.Now()
			info, err := classfile.Parse(bytes.NewReader(data))
			observability.ParsingDuration.Observe(time.Since(began).Seconds())
			if err != nil {
				observability.ParseErrorsTotal.Inc()
				return errors.AddContext(err, errors.CtxUnit, name)
			}
			observability.UnitsParsedTotal.Inc()
			parsed.Add(1)
			*slot = info
			return nil
		})
		return nil
	})
	waitErr := g.Wait()
	if waitErr != nil {
		span.RecordError(waitErr)
		return nil, waitErr
	}
	if scanErr != nil {
		span.RecordError(scanErr)
		return nil, scanErr
	}

	units := make([]classfile.UnitInfo, len(slots))
	for i, slot := range slots {
		units[i] = *slot
	}
	span.SetAttributes(attribute.Int64("units", parsed.Load()))
	a.logger.Debug("classpath analyzed", "units", len(units), "roots", len(roots), "duration", time.Since(start))
	return units, nil
}
