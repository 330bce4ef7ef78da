// Package discover expands input patterns into the header files to convert.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/hpp2puml/internal/lang"
)

// ErrNoInputs is returned when no pattern resolves to a file.
var ErrNoInputs = errors.Base("no input files")

var skipDirs = map[string]struct{}{
	"node_modules":        {},
	".git":                {},
	".hg":                 {},
	".svn":                {},
	"build":               {},
	"dist":                {},
	"out":                 {},
	"CMakeFiles":          {},
	"cmake-build-debug":   {},
	"cmake-build-release": {},
	".cache":              {},
}

// Expand resolves patterns to a sorted list of unique file paths.
//
// A pattern is a file, a directory, a shell glob, or a glob containing
// "**". Directories expand to every C++ header below them, honouring the
// directory's .gitignore. "**" globs match at any depth and only select
// headers. Paths matching one of excludes (gitignore syntax) are dropped.
func Expand(patterns, excludes []string) ([]string, error) {
	var ex *ignore.GitIgnore
	if len(excludes) > 0 {
		ex = ignore.CompileIgnoreLines(excludes...)
	}

	seen := make(map[string]struct{})
	var results []string
	for _, pattern := range patterns {
		matches, err := expandPattern(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			path = filepath.Clean(path)
			if ex != nil && ex.MatchesPath(filepath.ToSlash(path)) {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			results = append(results, path)
		}
	}

	if len(results) == 0 {
		return nil, errors.Errorf("%w: %s", ErrNoInputs, strings.Join(patterns, " "))
	}
	sort.Strings(results)
	return results, nil
}

func expandPattern(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return walkPattern(pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Errorf("bad pattern %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files = append(files, m)
			continue
		}
		headers, err := Headers(m)
		if err != nil {
			return nil, err
		}
		files = append(files, headers...)
	}
	return files, nil
}

// walkPattern resolves a "**" glob by walking its literal prefix and
// matching the remainder with gitignore semantics.
func walkPattern(pattern string) ([]string, error) {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	split := len(segments)
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[") {
			split = i
			break
		}
	}
	root := strings.Join(segments[:split], "/")
	if root == "" && split > 0 {
		root = "/"
	}
	if root == "" {
		root = "."
	}
	root = filepath.FromSlash(root)
	matcher := ignore.CompileIgnoreLines(strings.Join(segments[split:], "/"))

	var files []string
	err := walk(root, func(path, rel string) {
		if lang.ForPath(path) != "" && matcher.MatchesPath(rel) {
			files = append(files, path)
		}
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Headers returns every C++ header below dir, skipping build and VCS
// directories, hidden entries, symlinks and paths ignored by dir/.gitignore.
func Headers(dir string) ([]string, error) {
	gi := loadGitignore(dir)

	var files []string
	err := walk(dir, func(path, rel string) {
		if gi != nil && gi.MatchesPath(rel) {
			return
		}
		if lang.ForPath(path) != "" {
			files = append(files, path)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// walk calls fn with the path and the slash-separated path relative to
// root for every regular file below root.
func walk(root string, fn func(path, rel string)) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		fn(path, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return errors.Errorf("walking %s: %w", root, err)
	}
	return nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
