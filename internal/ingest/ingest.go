// Package ingest expands user-supplied paths and glob patterns into the
// concrete file list fed into an annotation session.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options controls path expansion.
type Options struct {
	// Recursive expands directory arguments into every regular file below
	// them. Without it a directory argument expands to its direct children.
	Recursive bool
	// Extensions, when non-empty, keeps only files whose lowercase
	// extension (with dot) is in the set.
	Extensions []string
}

// Expand resolves each argument (literal path, directory, or glob pattern
// with ** support) into a deduplicated, sorted list of absolute file paths.
// A pattern matching nothing is an error so typos do not silently produce
// empty uploads.
func Expand(args []string, opts Options) ([]string, error) {
	extFilter := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extFilter[strings.ToLower(ext)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if len(extFilter) > 0 {
			if _, ok := extFilter[strings.ToLower(filepath.Ext(abs))]; !ok {
				return nil
			}
		}
		if _, dup := seen[abs]; dup {
			return nil
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		return nil
	}

	for _, arg := range args {
		matches, err := expandOne(arg, opts.Recursive)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func expandOne(arg string, recursive bool) ([]string, error) {
	if info, err := os.Stat(arg); err == nil {
		if !info.IsDir() {
			return []string{arg}, nil
		}
		return expandDir(arg, recursive)
	}
	pattern := filepath.ToSlash(arg)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", arg)
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", arg, err)
	}
	return matches, nil
}

func expandDir(dir string, recursive bool) ([]string, error) {
	if recursive {
		pattern := filepath.ToSlash(filepath.Join(dir, "**"))
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}
