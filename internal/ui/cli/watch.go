package cli

import (
	"context"
	"log/slog"

	"archcheck/internal/core/config"
	"archcheck/internal/core/ports"
	"archcheck/internal/shared/observability"

	"github.com/spf13/cobra"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run checks whenever classes on the classpath change",
		Long: `Run the enabled checks, then watch the classpath and run them again after
every change. Edits to the config file are picked up without a restart. With
observability.metrics_address set, /metrics and /health are served.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dot, "dot", "", "also write the package graph in DOT format to this file")
	return cmd
}

func runWatch(ctx context.Context, opts *cliOptions) error {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if cfg.Watch.LogFile {
		logPath := config.ResolvePaths(cfg).LogPath
		w, closeLog, err := openLogFile(logPath)
		if err != nil {
			return err
		}
		defer closeLog()
		configureLogging(w, opts.verbose)
		slog.Info("watch mode logging to file", "path", logPath)
	}

	var server *observability.Server
	if addr := cfg.Observability.MetricsAddress; addr != "" {
		server = observability.NewServer(addr)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := server.Stop(context.Background()); err != nil {
				slog.Warn("failed to stop observability server", "error", err)
			}
		}()
	}

	// Only the newest reloaded config matters.
	reloads := make(chan *config.Config, 1)
	if path != "" {
		cw, err := config.NewWatcher(path, 0, slog.Default(), func(next *config.Config) {
			select {
			case <-reloads:
			default:
			}
			select {
			case reloads <- next:
			default:
			}
		})
		if err != nil {
			return err
		}
		wctx, cancel := context.WithCancel(ctx)
		defer func() {
			cancel()
			cw.Wait()
		}()
		if err := cw.Start(wctx); err != nil {
			return err
		}
	}

	for {
		s, err := opts.openWith(ctx, cfg, path)
		if err != nil {
			return err
		}
		next, err := s.watchUntilReload(ctx, server, reloads)
		s.Close()
		if err != nil || next == nil {
			return err
		}
		slog.Info("restarting watch with reloaded config", "path", path)
		cfg = next
	}
}

// watchUntilReload watches until ctx is done, returning nil, or until a new
// config arrives, returning it.
func (s *session) watchUntilReload(ctx context.Context, server *observability.Server, reloads <-chan *config.Config) (*config.Config, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.app.Watch(runCtx, func(result ports.CheckReport, err error) {
			s.onWatchRun(server, result, err)
		})
	}()

	select {
	case <-ctx.Done():
		cancel()
		return nil, <-done
	case next := <-reloads:
		cancel()
		if err := <-done; err != nil {
			return nil, err
		}
		return next, nil
	case err := <-done:
		return nil, err
	}
}

func (s *session) onWatchRun(server *observability.Server, result ports.CheckReport, err error) {
	if err != nil {
		slog.Error("check run failed", "error", err)
		return
	}
	if server != nil {
		server.RecordRun(result.StartedAt, result.Passed())
	}
	slog.Info("check run finished",
		"run_id", result.RunID,
		"units", result.Units,
		"violations", len(result.Violations),
		"duration", result.Duration,
	)
	if err := s.write(result); err != nil {
		slog.Error("failed to write report", "error", err)
	}
}
