package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreapp "archcheck/internal/core/app"
	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/engine/scanner"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"
)

// session is one loaded configuration and the app built from it.
type session struct {
	cfg        *config.Config
	configPath string
	app        *coreapp.App
	opts       *cliOptions

	shutdownTracing func(context.Context) error
}

func (o *cliOptions) open(ctx context.Context) (*session, error) {
	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return o.openWith(ctx, cfg, path)
}

func (o *cliOptions) openWith(ctx context.Context, cfg *config.Config, path string) (*session, error) {
	if err := o.applyOverrides(cfg); err != nil {
		return nil, err
	}
	a, err := coreapp.New(cfg)
	if err != nil {
		return nil, err
	}
	if o.classpath != "" {
		a.SetClasspath(scanner.SplitClasspath(o.classpath))
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.Insecure,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		_ = a.Close()
		return nil, errors.Wrap(err, errors.CodeInternal, "init tracing")
	}

	slog.Debug("session opened",
		"config", path,
		"classpath", strings.Join(a.Classpath(), string(os.PathListSeparator)),
		"modules", len(cfg.Modules),
		"history", a.HistoryEnabled(),
	)
	return &session{
		cfg:             cfg,
		configPath:      path,
		app:             a,
		opts:            o,
		shutdownTracing: shutdown,
	}, nil
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdownTracing(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
	if err := s.app.Close(); err != nil {
		slog.Warn("failed to close history store", "error", err)
	}
}

// outputPath prefers --output over output.path.
func (s *session) outputPath() string {
	if s.opts.output != "" {
		return s.opts.output
	}
	return s.app.Paths().OutputPath
}

// dotPath prefers --dot over output.dot.
func (s *session) dotPath() string {
	if s.opts.dot != "" {
		return s.opts.dot
	}
	return s.app.Paths().DOTPath
}

// emit writes data to path, or to stdout when path is empty.
func (s *session) emit(data []byte, path string) error {
	if path == "" {
		_, err := s.opts.stdout.Write(data)
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write report"), errors.CtxPath, path)
	}
	slog.Info("report written", "path", path)
	return nil
}

// loadConfig resolves the config file from the flag, ARCHCHECK_CONFIG or
// ./archcheck.toml. With none of them present the defaults are used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfig))
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	if _, err := os.Stat(config.DefaultFile); err == nil {
		cfg, err := config.Load(config.DefaultFile)
		if err != nil {
			return nil, "", err
		}
		return cfg, config.DefaultFile, nil
	}
	slog.Debug("no config file found, using defaults")
	return config.Default(), "", nil
}

func (o *cliOptions) applyOverrides(cfg *config.Config) error {
	if o.format != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(o.format))
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// openLogFile appends to path, refusing symlinks. The returned function
// closes the file.
func openLogFile(path string) (io.Writer, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "create log directory"), errors.CtxPath, path)
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return nil, nil, errors.AddContext(errors.New(errors.CodeValidationError, "refusing to write logs to a symlink"), errors.CtxPath, path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open log file"), errors.CtxPath, path)
	}
	return f, func() { _ = f.Close() }, nil
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.Newf(errors.CodeValidationError, "--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}
