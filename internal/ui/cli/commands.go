package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/shared/version"
	"archcheck/internal/ui/report"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every enabled check against the classpath",
		Long: `Analyze the classpath and run the checks enabled in the [checks] section:
unit cycles, package cycles, module boundaries, unused module uses and
uncovered units. A history snapshot is recorded when history is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dot, "dot", "", "also write the package graph in DOT format to this file")
	return cmd
}

func runCheck(ctx context.Context, opts *cliOptions) error {
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.app.RunCheck(ctx)
	if err != nil {
		return err
	}
	return s.publish(result)
}

func newCyclesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Report the first unit cycle and the first package cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubset(cmd.Context(), opts, func(s *session) error {
				on, off := true, false
				s.cfg.Checks.UnitCycles = &on
				s.cfg.Checks.PackageCycles = &on
				s.cfg.Checks.ModuleBoundaries = &off
				s.cfg.Checks.UnusedUses = &off
				s.cfg.Checks.Uncovered = &off
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.dot, "dot", "", "also write the package graph in DOT format to this file")
	return cmd
}

func newModulesCmd(opts *cliOptions) *cobra.Command {
	var uncovered bool
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect every declared module against its allowed uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubset(cmd.Context(), opts, func(s *session) error {
				if len(s.app.Modules()) == 0 {
					return errors.New(errors.CodeValidationError, "no modules are declared in the configuration")
				}
				on, off := true, false
				s.cfg.Checks.UnitCycles = &off
				s.cfg.Checks.PackageCycles = &off
				s.cfg.Checks.ModuleBoundaries = &on
				s.cfg.Checks.UnusedUses = &on
				s.cfg.Checks.Uncovered = &uncovered
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&uncovered, "uncovered", false, "also report units no module includes")
	return cmd
}

// runSubset evaluates the checks selected by configure without recording
// history.
func runSubset(ctx context.Context, opts *cliOptions, configure func(*session) error) error {
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := configure(s); err != nil {
		return err
	}
	units, err := s.app.AnalyzeClasspath(ctx, s.cfg.Includes())
	if err != nil {
		return err
	}
	result, err := s.app.Evaluate(ctx, units)
	if err != nil {
		return err
	}
	return s.publish(result)
}

func newUnitsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "units [pattern...]",
		Short: "Print every analyzed unit with its dependencies",
		Long: `Print each analyzed unit followed by its sorted dependencies. Patterns
select the units to print and default to the configured includes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			includes := args
			if len(includes) == 0 {
				includes = s.cfg.Includes()
			}
			units, err := s.app.AnalyzeClasspath(cmd.Context(), includes)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := report.DumpUnits(&buf, units); err != nil {
				return err
			}
			return s.emit(buf.Bytes(), s.outputPath())
		},
	}
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the trend of recorded check runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, err := parseSince(opts.since)
			if err != nil {
				return err
			}
			if opts.window <= 0 {
				return errors.Newf(errors.CodeValidationError, "--window must be > 0, got %s", opts.window)
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			trend, err := s.app.Trend(cmd.Context(), ports.TrendRequest{Since: since, Window: opts.window})
			if err != nil {
				return err
			}
			data, err := report.RenderTrend(s.cfg.Output.Format, trend)
			if err != nil {
				return err
			}
			return s.emit(data, s.outputPath())
		},
	}
	cmd.Flags().StringVar(&opts.since, "since", "", "only include runs at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().DurationVar(&opts.window, "window", 24*time.Hour, "moving-average window for trend summaries")
	return cmd
}

func newVersionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

// publish writes the rendered report and the optional DOT graph, and turns
// violations into the violation exit code.
func (s *session) publish(result ports.CheckReport) error {
	if err := s.write(result); err != nil {
		return err
	}
	if !result.Passed() {
		return &exitError{code: ExitViolations}
	}
	return nil
}

func (s *session) write(result ports.CheckReport) error {
	data, err := report.Render(s.cfg.Output.Format, result)
	if err != nil {
		return err
	}
	if err := s.emit(data, s.outputPath()); err != nil {
		return err
	}

	path := s.dotPath()
	if path == "" {
		return nil
	}
	var cycle []string
	if result.PackageCycle != nil {
		cycle = result.PackageCycle.Path
	}
	dot, err := report.RenderDOT(result.Analyzed, cycle)
	if err != nil {
		return err
	}
	return s.emit([]byte(dot), path)
}

func newTraceCmd(opts *cliOptions) *cobra.Command {
	var (
		packages bool
		maxDepth int
	)
	cmd := &cobra.Command{
		Use:   "trace FROM TO",
		Short: "Print the shortest dependency chain between two units",
		Long: `Print the shortest dependency chain from one analyzed unit to another unit
or dependency. With --packages both ends name packages and each step lists the
unit references behind it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			granularity := ports.GranularityUnit
			if packages {
				granularity = ports.GranularityPackage
			}
			result, err := s.app.Trace(cmd.Context(), ports.TraceRequest{
				From:        args[0],
				To:          args[1],
				Granularity: granularity,
				MaxDepth:    maxDepth,
			})
			if err != nil {
				return err
			}
			data, err := report.RenderTrace(s.cfg.Output.Format, result)
			if err != nil {
				return err
			}
			return s.emit(data, s.outputPath())
		},
	}
	cmd.Flags().BoolVar(&packages, "packages", false, "trace between packages instead of units")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "fail when the chain is longer than this (0 means unlimited)")
	return cmd
}
