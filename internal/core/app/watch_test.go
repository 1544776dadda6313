package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeClass(t *testing.T, root, name string, deps ...string) {
	t.Helper()
	_, data := class(name, deps...)
	path := filepath.Join(root, filepath.FromSlash(internalName(name))+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestWatch_RerunsOnChange(t *testing.T) {
	root := t.TempDir()
	writeClass(t, root, "com.acme.p.X")

	cfg := mustConfig(t, `
[watch]
debounce = "50ms"
max_runs_per_second = 50
`)
	a, err := New(cfg)
	require.NoError(t, err)
	a.SetClasspath([]string{root})

	type result struct {
		report ports.CheckReport
		err    error
	}
	results := make(chan result, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, func(r ports.CheckReport, err error) { results <- result{r, err} })
	}()

	next := func() result {
		t.Helper()
		select {
		case r := <-results:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a check run")
			return result{}
		}
	}

	first := next()
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.report.Units)
	assert.True(t, first.report.Passed())

	writeClass(t, root, "com.acme.q.Y", "com.acme.p.X")
	writeClass(t, root, "com.acme.p.Z", "com.acme.q.Y")

	deadline := time.After(5 * time.Second)
	for {
		var r result
		select {
		case r = <-results:
		case <-deadline:
			t.Fatal("timed out waiting for the package cycle to be reported")
		}
		if r.err == nil && r.report.PackageCycle != nil {
			assert.Equal(t, 3, r.report.Units)
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_Validation(t *testing.T) {
	a := newApp(t, mustConfig(t, ""), aNeedsB(), nil)
	err := a.Watch(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	a.SetClasspath(nil)
	err = a.Watch(context.Background(), func(ports.CheckReport, error) {})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
