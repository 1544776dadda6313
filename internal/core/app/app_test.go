package app

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/data/history"
	"archcheck/internal/engine/classfile/classfiletest"
	"archcheck/internal/engine/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEntry struct {
	name string
	data []byte
}

// memSource serves class bytes from memory in insertion order.
type memSource struct {
	entries []memEntry
}

func (s *memSource) add(name string, data []byte) *memSource {
	s.entries = append(s.entries, memEntry{name: name, data: data})
	return s
}

func (s *memSource) Scan(ctx context.Context, _ []string, match scanner.Match, handle scanner.Handler) error {
	for _, e := range s.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !match(e.name) {
			continue
		}
		if err := handle(e.name, bytes.NewReader(e.data)); err != nil {
			return err
		}
	}
	return nil
}

type memHistory struct {
	mu        sync.Mutex
	snapshots map[string][]history.Snapshot
}

func newMemHistory() *memHistory {
	return &memHistory{snapshots: make(map[string][]history.Snapshot)}
}

func (h *memHistory) SaveSnapshot(project string, s history.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots[project] = append(h.snapshots[project], s)
	return nil
}

func (h *memHistory) LoadSnapshots(project string, since time.Time) ([]history.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []history.Snapshot
	for _, s := range h.snapshots[project] {
		if since.IsZero() || !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

// class assembles a unit named by its dotted name that holds one field per
// dependency.
func class(name string, deps ...string) (string, []byte) {
	b := classfiletest.New(internalName(name))
	for i, dep := range deps {
		b.Field(classfiletest.Field{Name: fmt.Sprintf("f%d", i), Descriptor: "L" + internalName(dep) + ";"})
	}
	return name, b.Bytes()
}

func internalName(dotted string) string {
	return string(bytes.ReplaceAll([]byte(dotted), []byte("."), []byte("/")))
}

func aNeedsB() *memSource {
	src := &memSource{}
	src.add(class("com.acme.a.A", "com.acme.b.B", "java.lang.String"))
	src.add(class("com.acme.b.B"))
	return src
}

func mustConfig(t *testing.T, text string) *config.Config {
	t.Helper()
	cfg, err := config.Parse("version = 1\nclasspath = [\"cp\"]\n" + text)
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, cfg *config.Config, src ports.UnitSource, store ports.HistoryStore) *App {
	t.Helper()
	a, err := NewWithDependencies(cfg, Dependencies{Source: src, History: store})
	require.NoError(t, err)
	return a
}

func TestNewWithDependencies_Validation(t *testing.T) {
	_, err := NewWithDependencies(nil, Dependencies{})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = NewWithDependencies(config.Default(), Dependencies{})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestNew_BuildsScanner(t *testing.T) {
	cfg := mustConfig(t, "")
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.HistoryEnabled())
	assert.Len(t, a.Classpath(), 1)
}

func TestAnalyzeClasspath_KeepsScanOrder(t *testing.T) {
	src := &memSource{}
	var want []string
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("com.acme.gen.U%02d", 49-i)
		src.add(class(name, "com.acme.dep.D"))
		want = append(want, name)
	}
	src.add(class("org.other.Skipped"))

	cfg := mustConfig(t, "[analysis]\nworkers = 4\n")
	a := newApp(t, cfg, src, nil)

	units, err := a.AnalyzeClasspath(context.Background(), []string{"com.acme.**"})
	require.NoError(t, err)
	require.Len(t, units, len(want))
	for i, u := range units {
		assert.Equal(t, want[i], u.Name())
		assert.Equal(t, []string{"com.acme.dep.D", "java.lang.Object"}, u.Dependencies())
	}
}

func TestAnalyzeClasspath_ParseFailureAborts(t *testing.T) {
	src := aNeedsB()
	src.add("com.acme.broken.X", []byte{0xCA, 0xFE})
	a := newApp(t, mustConfig(t, ""), src, nil)

	_, err := a.AnalyzeClasspath(context.Background(), []string{"**"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMalformedInput))
	assert.Contains(t, err.Error(), "com.acme.broken.X")
}

func TestAnalyzeClasspath_InvalidInclude(t *testing.T) {
	a := newApp(t, mustConfig(t, ""), aNeedsB(), nil)
	_, err := a.AnalyzeClasspath(context.Background(), []string{"a.***"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidPattern))
}

func TestAnalyzeClasspath_EmptyClasspath(t *testing.T) {
	a := newApp(t, mustConfig(t, ""), aNeedsB(), nil)
	a.SetClasspath(nil)
	_, err := a.AnalyzeClasspath(context.Background(), []string{"**"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestAnalyzeClasspath_Cancelled(t *testing.T) {
	a := newApp(t, mustConfig(t, ""), aNeedsB(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.AnalyzeClasspath(ctx, []string{"**"})
	assert.ErrorIs(t, err, context.Canceled)
}
