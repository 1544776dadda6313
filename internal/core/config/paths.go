package config

import (
	"os"
	"path/filepath"
	"strings"

	"archcheck/internal/engine/scanner"
)

// ResolvedPaths holds the absolute locations a run reads and writes.
type ResolvedPaths struct {
	Classpath   []string
	StateDir    string
	HistoryPath string
	LogPath     string
	OutputPath  string
	DOTPath     string
}

// ResolvePaths resolves configured paths against the config directory. An
// empty classpath falls back to the CLASSPATH environment variable.
func ResolvePaths(cfg *Config) ResolvedPaths {
	base := cfg.Dir()
	stateDir := DefaultStateDir()

	entries := cfg.Classpath
	if len(entries) == 0 {
		entries = filepath.SplitList(os.Getenv(scanner.EnvClasspath))
	}
	classpath := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		classpath = append(classpath, scanner.SplitClasspath(ResolveRelative(base, entry))...)
	}

	historyPath := strings.TrimSpace(cfg.History.Path)
	if historyPath == "" {
		historyPath = filepath.Join(stateDir, "history.db")
	} else {
		historyPath = ResolveRelative(base, historyPath)
	}

	resolved := ResolvedPaths{
		Classpath:   classpath,
		StateDir:    stateDir,
		HistoryPath: historyPath,
		LogPath:     filepath.Join(stateDir, "archcheck.log"),
	}
	if cfg.Output.Path != "" {
		resolved.OutputPath = ResolveRelative(base, cfg.Output.Path)
	}
	if cfg.Output.DOT != "" {
		resolved.DOTPath = ResolveRelative(base, cfg.Output.DOT)
	}
	return resolved
}

// DefaultStateDir follows the XDG base directory layout.
func DefaultStateDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); dir != "" {
		return filepath.Join(dir, "archcheck")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "archcheck")
	}
	return filepath.Join(os.TempDir(), "archcheck")
}

// ProjectName is the history project key: history.project, or the name of
// the config directory.
func ProjectName(cfg *Config) string {
	if cfg.History.Project != "" {
		return cfg.History.Project
	}
	base := cfg.Dir()
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return filepath.Base(base)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
