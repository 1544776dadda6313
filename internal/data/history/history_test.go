package history

import (
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"archcheck/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestStore_SaveLoad(t *testing.T) {
	store, path := openStore(t)
	assert.Equal(t, path, store.Path())

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Snapshot{RunID: "run-1", Timestamp: base, UnitCount: 5, PackageCount: 2, UnitCycle: 1}
	replaced := Snapshot{RunID: "run-1", Timestamp: base, UnitCount: 8, PackageCount: 3}
	second := Snapshot{
		RunID:           "run-2",
		Timestamp:       base.Add(2 * time.Hour),
		UnitCount:       9,
		PackageCount:    3,
		EdgeCount:       14,
		UndeclaredCount: 2,
		AvgFanOut:       1.5,
		MaxFanIn:        4,
		MaxFanOut:       5,
		Passed:          true,
	}

	require.NoError(t, store.SaveSnapshot("project-a", first))
	require.NoError(t, store.SaveSnapshot("project-a", replaced))
	require.NoError(t, store.SaveSnapshot("project-a", second))

	got, err := store.LoadSnapshots("project-a", base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, "project-a", got[0].ProjectKey)
	assert.Equal(t, 14, got[0].EdgeCount)
	assert.Equal(t, 1.5, got[0].AvgFanOut)
	assert.True(t, got[0].Passed)
	assert.True(t, got[0].Timestamp.Equal(second.Timestamp))

	all, err := store.LoadSnapshots("project-a", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 8, all[0].UnitCount, "same run id replaces the row")
	assert.Equal(t, 0, all[0].UnitCycle)
	assert.False(t, all[0].Passed)
}

func TestStore_FillsRunIDAndTimestamp(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.SaveSnapshot("", Snapshot{UnitCount: 1}))

	rows, err := store.LoadSnapshots("default", time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].RunID)
	assert.False(t, rows[0].Timestamp.IsZero())
	assert.Equal(t, SchemaVersion, rows[0].SchemaVersion)
}

func TestStore_RejectsUnknownSchemaVersion(t *testing.T) {
	store, _ := openStore(t)
	err := store.SaveSnapshot("p", Snapshot{SchemaVersion: SchemaVersion + 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestStore_ProjectIsolation(t *testing.T) {
	store, _ := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSnapshot("project-a", Snapshot{Timestamp: base, UnitCount: 1}))
	require.NoError(t, store.SaveSnapshot("project-b", Snapshot{Timestamp: base, UnitCount: 2}))

	aRows, err := store.LoadSnapshots("project-a", time.Time{})
	require.NoError(t, err)
	require.Len(t, aRows, 1)
	assert.Equal(t, 1, aRows[0].UnitCount)

	bRows, err := store.LoadSnapshots("project-b", time.Time{})
	require.NoError(t, err)
	require.Len(t, bRows, 1)
	assert.Equal(t, 2, bRows[0].UnitCount)
}

func TestStore_Prune(t *testing.T) {
	store, _ := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveSnapshot("p", Snapshot{Timestamp: base.Add(time.Duration(i) * time.Hour)}))
	}

	removed, err := store.Prune("p", base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	rows, err := store.LoadSnapshots("p", time.Time{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOpen_RejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Contains(t, err.Error(), "is a directory")
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := Open("  ", 0)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite, just some bytes padded out"), 0o644))

	_, err := Open(path, 0)
	require.Error(t, err)
	assert.True(t, IsCorruptError(err), "unexpected error: %v", err)
}

func TestEnsureSchema_DetectsNewerVersion(t *testing.T) {
	store, path := openStore(t)
	_, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(stderrors.New("database disk image is malformed")))
	assert.False(t, IsCorruptError(stderrors.New("database is locked")))
	assert.False(t, IsCorruptError(nil))
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	snapshots := []Snapshot{
		{RunID: "a", Timestamp: base, UnitCount: 4, PackageCount: 2, UndeclaredCount: 4, AvgFanOut: 1.2},
		{RunID: "b", Timestamp: base.Add(2 * time.Hour), UnitCount: 6, PackageCount: 2, UndeclaredCount: 2, AvgFanOut: 2.4, Passed: true},
		{RunID: "c", Timestamp: base.Add(25 * time.Hour), UnitCount: 9, PackageCount: 3, UndeclaredCount: 3, AvgFanOut: 2.1},
	}

	report, err := BuildTrendReport("project-a", snapshots, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "project-a", report.Project)
	assert.Equal(t, 3, report.RunCount)
	assert.Equal(t, 33.33, report.PassRate)
	assert.Equal(t, base, report.Since)

	assert.Equal(t, 2, report.Points[1].DeltaUnits)
	assert.Equal(t, -2, report.Points[1].DeltaUndeclared)
	assert.Equal(t, 1.2, report.Points[1].DeltaAvgFanOut)
	assert.Equal(t, 50.0, report.Points[1].UnitGrowthPct)
	assert.Equal(t, 3.0, report.Points[1].AvgUndeclared)
	assert.Equal(t, 1, report.Points[2].DeltaPackages)
	assert.Equal(t, 2.5, report.Points[2].AvgUndeclared, "first run falls outside the window")
	assert.Equal(t, 24.0, report.Points[2].WindowHours)
}

func TestBuildTrendReport_Empty(t *testing.T) {
	_, err := BuildTrendReport("p", nil, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
