package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitClasspath(t *testing.T) {
	dir := t.TempDir()
	libs := filepath.Join(dir, "libs")
	writeFile(t, filepath.Join(libs, "b.jar"), "")
	writeFile(t, filepath.Join(libs, "a.jar"), "")
	writeFile(t, filepath.Join(libs, "notes.txt"), "")
	writeFile(t, filepath.Join(libs, "nested", "c.jar"), "")

	sep := string(os.PathListSeparator)
	value := strings.Join([]string{"classes", "", " app.jar ", filepath.Join(libs, "*")}, sep)

	assert.Equal(t, []string{
		"classes",
		"app.jar",
		filepath.Join(libs, "a.jar"),
		filepath.Join(libs, "b.jar"),
	}, SplitClasspath(value))

	assert.Empty(t, SplitClasspath(""))
	assert.Empty(t, SplitClasspath(filepath.Join(dir, "missing", "*")))
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvClasspath, "x"+string(os.PathListSeparator)+"y.jar")
	assert.Equal(t, []string{"x", "y.jar"}, FromEnv())
}
