package detect

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const ManifestName = "pubspec.yaml"

// Ignored directories (exact match on folder name)
var ignoredDirs = map[string]struct{}{
	".git":         {},
	".dart_tool":   {},
	".pub-cache":   {},
	"build":        {},
	"node_modules": {},
}

// Manifests returns the sorted absolute paths of the pubspec.yaml files below root.
// Manifests inside ignored directories or matching one of the exclude globs (relative to root) are skipped.
// If root is a file, it is returned as-is.
func Manifests(root string, excludes []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{absRoot}, nil
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	matches, err := doublestar.Glob(os.DirFS(absRoot), "**/"+ManifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to search manifests: %w", err)
	}

	var manifests []string
	for _, m := range matches {
		if inIgnoredDir(m) || excluded(m, excludes) {
			continue
		}
		manifests = append(manifests, filepath.Join(absRoot, filepath.FromSlash(m)))
	}

	// Ensure deterministic order
	sort.Strings(manifests)
	return manifests, nil
}

func inIgnoredDir(rel string) bool {
	for _, dir := range strings.Split(path.Dir(rel), "/") {
		if _, ok := ignoredDirs[dir]; ok {
			return true
		}
	}
	return false
}

func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
