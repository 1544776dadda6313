// Package scanner discovers compiled units on a classpath. A classpath root is
// a directory tree, a jar or zip archive, or a single .class file.
package scanner

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"archcheck/internal/core/errors"

	"github.com/gobwas/glob"
)

const classSuffix = ".class"

// Match selects unit names to hand to a Handler.
type Match func(name string) bool

// Handler consumes one matching unit. The stream is closed by the scanner
// after Handler returns; a non-nil error stops the scan.
type Handler func(name string, in io.Reader) error

// Options configures a Scanner.
type Options struct {
	// Exclude holds slash-separated path globs matched against the unit's
	// path relative to its root, e.g. "**/generated/**".
	Exclude []string
	// FollowManifest adds the Class-Path entries of scanned jar manifests.
	FollowManifest bool
	Logger         *slog.Logger
}

type Scanner struct {
	exclude        []glob.Glob
	followManifest bool
	logger         *slog.Logger
}

func New(opts Options) (*Scanner, error) {
	compiled := make([]glob.Glob, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, (&errors.DomainError{
				Code:    errors.CodeValidationError,
				Message: "invalid exclude pattern",
				Err:     err,
			}).WithContext(errors.CtxPattern, p)
		}
		compiled = append(compiled, g)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{exclude: compiled, followManifest: opts.FollowManifest, logger: logger}, nil
}

// Scan walks roots with default options.
func Scan(ctx context.Context, roots []string, match Match, handle Handler) error {
	s, err := New(Options{})
	if err != nil {
		return err
	}
	return s.Scan(ctx, roots, match, handle)
}

type classpathRoot struct {
	path string
	// fromManifest roots came from a jar's Class-Path and may be absent.
	fromManifest bool
}

// Scan visits every unit under roots, in root order, and calls handle exactly
// once for each unit whose name satisfies match. A missing root is an error
// unless it was named by a manifest Class-Path.
func (s *Scanner) Scan(ctx context.Context, roots []string, match Match, handle Handler) error {
	seenArchives := make(map[string]bool)
	queue := make([]classpathRoot, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, classpathRoot{path: r})
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Stat(next.path)
		if err != nil {
			if os.IsNotExist(err) {
				if next.fromManifest {
					s.logger.Debug("skipping missing manifest classpath entry", "path", next.path)
					continue
				}
				return (&errors.DomainError{
					Code:    errors.CodeNotFound,
					Message: "classpath root does not exist",
					Err:     err,
				}).WithContext(errors.CtxPath, next.path)
			}
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "stat classpath root"), errors.CtxPath, next.path)
		}

		switch {
		case info.IsDir():
			err = s.scanDir(ctx, next.path, match, handle)
		case strings.HasSuffix(next.path, classSuffix):
			err = s.scanClassFile(next.path, match, handle)
		case isArchive(next.path):
			abs, _ := filepath.Abs(next.path)
			if seenArchives[abs] {
				continue
			}
			seenArchives[abs] = true
			var extra []string
			extra, err = s.scanArchive(ctx, next.path, match, handle)
			for _, e := range extra {
				queue = append(queue, classpathRoot{path: e, fromManifest: true})
			}
		default:
			s.logger.Debug("skipping classpath entry", "path", next.path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) scanDir(ctx context.Context, root string, match Match, handle Handler) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, classSuffix) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.excluded(rel) {
			return nil
		}
		name, ok := UnitName(rel)
		if !ok || !match(name) {
			return nil
		}
		return s.handleFile(path, name, handle)
	})
}

func (s *Scanner) scanClassFile(path string, match Match, handle Handler) error {
	name, ok := UnitName(filepath.Base(path))
	if !ok || !match(name) {
		return nil
	}
	return s.handleFile(path, name, handle)
}

func (s *Scanner) handleFile(path, name string, handle Handler) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open class file"), errors.CtxPath, path)
	}
	defer f.Close()

	if err := handle(name, f); err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}
	return nil
}

func (s *Scanner) scanArchive(ctx context.Context, path string, match Match, handle Handler) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeMalformedInput, "open archive"), errors.CtxPath, path)
	}
	defer zr.Close()

	s.logger.Debug("scanning archive", "path", path, "entries", len(zr.File))
	var extra []string
	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.followManifest && strings.EqualFold(entry.Name, manifestPath) {
			entries, err := readManifestClasspath(entry, filepath.Dir(path))
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, path)
			}
			extra = append(extra, entries...)
			continue
		}
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, classSuffix) {
			continue
		}
		if s.excluded(entry.Name) {
			continue
		}
		name, ok := UnitName(entry.Name)
		if !ok || !match(name) {
			continue
		}
		if err := s.handleEntry(entry, name, handle); err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, path+"!/"+entry.Name)
		}
	}
	return extra, nil
}

func (s *Scanner) handleEntry(entry *zip.File, name string, handle Handler) error {
	rc, err := entry.Open()
	if err != nil {
		return errors.Wrap(err, errors.CodeMalformedInput, "open archive entry")
	}
	defer rc.Close()
	return handle(name, rc)
}

func (s *Scanner) excluded(rel string) bool {
	for _, g := range s.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// UnitName derives a dotted unit name from a slash-separated path relative to
// a classpath root: "a/b/C$D.class" becomes "a.b.C$D". Module and package
// descriptors are not units.
func UnitName(rel string) (string, bool) {
	rel = strings.TrimPrefix(rel, "/")
	if !strings.HasSuffix(rel, classSuffix) {
		return "", false
	}
	// Multi-release jars keep versioned copies under META-INF.
	if strings.HasPrefix(rel, "META-INF/") {
		return "", false
	}
	base := rel[strings.LastIndexByte(rel, '/')+1:]
	if base == "module-info.class" || base == "package-info.class" {
		return "", false
	}
	return strings.ReplaceAll(strings.TrimSuffix(rel, classSuffix), "/", "."), true
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}
