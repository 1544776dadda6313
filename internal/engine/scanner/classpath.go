package scanner

import (
	"archive/zip"
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"archcheck/internal/core/errors"
)

const manifestPath = "META-INF/MANIFEST.MF"

// EnvClasspath is the environment variable read by FromEnv.
const EnvClasspath = "CLASSPATH"

// SplitClasspath splits a classpath string on the platform list separator and
// expands "dir/*" entries to the jars directly inside dir, sorted. Empty
// entries are dropped.
func SplitClasspath(value string) []string {
	var out []string
	for _, entry := range filepath.SplitList(value) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		out = append(out, expandWildcard(entry)...)
	}
	return out
}

// FromEnv returns the roots named by the CLASSPATH environment variable.
func FromEnv() []string {
	return SplitClasspath(os.Getenv(EnvClasspath))
}

func expandWildcard(entry string) []string {
	if filepath.Base(entry) != "*" {
		return []string{entry}
	}
	dir := filepath.Dir(entry)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var jars []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isArchive(e.Name()) {
			jars = append(jars, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(jars)
	return jars
}

// readManifestClasspath returns the Class-Path entries of a jar manifest,
// resolved against the jar's directory.
func readManifestClasspath(entry *zip.File, baseDir string) ([]string, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedInput, "open manifest")
	}
	defer rc.Close()

	value := ""
	inClasspath := false
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case inClasspath && strings.HasPrefix(line, " "):
			// Continuation lines start with a single space.
			value += line[1:]
		case strings.HasPrefix(strings.ToLower(line), "class-path:"):
			value = strings.TrimLeft(line[len("class-path:"):], " ")
			inClasspath = true
		default:
			inClasspath = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedInput, "read manifest")
	}

	var out []string
	for _, field := range strings.Fields(value) {
		field = strings.TrimPrefix(field, "file:")
		if !filepath.IsAbs(field) {
			field = filepath.Join(baseDir, filepath.FromSlash(field))
		}
		out = append(out, field)
	}
	return out, nil
}
