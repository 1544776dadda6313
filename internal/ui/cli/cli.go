// Package cli implements the archcheck command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archcheck/internal/core/errors"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitSuccess    = 0
	ExitViolations = 1
	ExitError      = 2
)

// envConfig names a config file when --config is not given.
const envConfig = "ARCHCHECK_CONFIG"

type cliOptions struct {
	configPath string
	classpath  string
	format     string
	output     string
	dot        string
	verbose    bool

	since  string
	window time.Duration

	stdout io.Writer
	stderr io.Writer
}

// exitError ends a command with a specific exit code. A nil err means the
// command already reported the failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := &cliOptions{stdout: stdout, stderr: stderr}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exitError
	if stderrors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(stderr, "error:", exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintln(stderr, "error:", err)
	if errors.IsCode(err, errors.CodeViolation) {
		return ExitViolations
	}
	return ExitError
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "archcheck",
		Short: "Verify the architecture of compiled JVM programs",
		Long: `archcheck reads compiled class files from a classpath and checks them for
dependency cycles between units and packages, and for dependencies that cross
declared module boundaries.

Exit status is 0 when every enabled check passes, 1 when a check reports a
violation, and 2 on any other error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(opts.stderr, opts.verbose)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to config file (env: "+envConfig+", default ./archcheck.toml)")
	flags.StringVar(&opts.classpath, "classpath", "", "classpath entries separated by the OS list separator; overrides the config")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: text, json, yaml, sarif")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCheckCmd(opts),
		newCyclesCmd(opts),
		newModulesCmd(opts),
		newUnitsCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newTraceCmd(opts),
		newVersionCmd(opts),
	)
	return root
}
