// Package app wires configuration, classpath scanning, analysis and history
// into the operations the CLI and watch mode drive.
package app

import (
	"io"
	"log/slog"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/data/history"
	"archcheck/internal/engine/module"
	"archcheck/internal/engine/scanner"
)

type App struct {
	Config *config.Config

	paths   config.ResolvedPaths
	modules []module.Module
	source  ports.UnitSource
	history ports.HistoryStore
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.AnalysisService = (*App)(nil)

// Dependencies overrides the collaborators New would build from config.
type Dependencies struct {
	Source  ports.UnitSource
	History ports.HistoryStore
	Logger  *slog.Logger
	Now     func() time.Time
}

// New builds an App from cfg, creating the classpath scanner and opening the
// history store when history is enabled.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	src, err := scanner.New(scanner.Options{
		Exclude:        cfg.Exclude,
		FollowManifest: cfg.FollowManifest,
		Logger:         slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	deps := Dependencies{Source: src}
	if cfg.History.Enabled {
		paths := config.ResolvePaths(cfg)
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxOperation, "open_history")
		}
		deps.History = store
	}
	return NewWithDependencies(cfg, deps)
}

// NewWithDependencies builds an App around injected collaborators.
func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	if deps.Source == nil {
		return nil, errors.New(errors.CodeValidationError, "unit source is required")
	}
	modules, err := cfg.BuildModules()
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{
		Config:  cfg,
		paths:   config.ResolvePaths(cfg),
		modules: modules,
		source:  deps.Source,
		history: deps.History,
		logger:  deps.Logger,
		now:     deps.Now,
	}, nil
}

// Modules returns the configured module boundaries.
func (a *App) Modules() []module.Module {
	return append([]module.Module(nil), a.modules...)
}

// Classpath returns the resolved classpath roots.
func (a *App) Classpath() []string {
	return append([]string(nil), a.paths.Classpath...)
}

// SetClasspath replaces the resolved classpath roots, e.g. from a flag.
func (a *App) SetClasspath(roots []string) {
	a.paths.Classpath = append([]string(nil), roots...)
}

// Paths returns the resolved run paths.
func (a *App) Paths() config.ResolvedPaths {
	return a.paths
}

// HistoryEnabled reports whether snapshots are recorded.
func (a *App) HistoryEnabled() bool {
	return a.history != nil
}

func (a *App) Close() error {
	if closer, ok := a.history.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
