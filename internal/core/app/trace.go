package app

import (
	"context"

	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/engine/graph"
	"archcheck/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Trace analyzes the classpath and returns the shortest dependency chain
// between two units, or two packages.
func (a *App) Trace(ctx context.Context, req ports.TraceRequest) (ports.TraceResult, error) {
	transform, err := traceTransform(req.Granularity)
	if err != nil {
		return ports.TraceResult{}, err
	}
	if req.From == "" || req.To == "" {
		return ports.TraceResult{}, errors.New(errors.CodeValidationError, "trace needs both ends")
	}
	ctx, span := observability.Tracer.Start(ctx, "App.Trace", trace.WithAttributes(
		attribute.String("from", req.From),
		attribute.String("to", req.To),
	))
	defer span.End()

	units, err := a.AnalyzeClasspath(ctx, a.Config.Includes())
	if err != nil {
		return ports.TraceResult{}, err
	}
	collapsed := graph.Collapse(units, transform)
	path, ok := graph.New(collapsed).ShortestPath(req.From, req.To)
	if !ok {
		return ports.TraceResult{}, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "no dependency path from %s to %s", req.From, req.To),
			errors.CtxOperation, "trace")
	}
	depth := len(path) - 1
	if req.MaxDepth > 0 && depth > req.MaxDepth {
		return ports.TraceResult{}, errors.Newf(errors.CodeValidationError, "trace depth %d exceeds max depth %d", depth, req.MaxDepth)
	}
	return ports.TraceResult{
		From:        req.From,
		To:          req.To,
		Granularity: req.Granularity,
		Path:        path,
		Depth:       depth,
		Edges:       graph.CycleEdges(units, transform, path),
	}, nil
}

func traceTransform(granularity string) (graph.Transform, error) {
	switch granularity {
	case ports.GranularityUnit:
		return func(name string) string { return name }, nil
	case ports.GranularityPackage:
		return graph.PackageOf, nil
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unknown granularity %q", granularity)
	}
}
