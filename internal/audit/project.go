package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
)

const lockfileName = "pubspec.lock"

// Project is a package found in the scanned tree.
type Project struct {
	// Path of the manifest, relative to the scanned directory.
	Path string
	// Dir is the absolute directory of the manifest, relative path dependencies are resolved from it.
	Dir      string
	Manifest *pubspec.Manifest
	// Lockfile is nil when the package was never resolved.
	Lockfile *pubspec.Lockfile
}

// DeclaredDependency is a dependency along with the manifest mapping it was declared in.
type DeclaredDependency struct {
	Name       string
	Section    string
	Dependency pubspec.Dependency
}

// Dependencies returns the dependencies of all sections, in manifest section order then by name.
func (p Project) Dependencies() []DeclaredDependency {
	var result []DeclaredDependency
	for _, section := range []struct {
		name string
		deps map[string]pubspec.Dependency
	}{
		{pubspec.SectionDependencies, p.Manifest.Dependencies},
		{pubspec.SectionDevDependencies, p.Manifest.DevDependencies},
		{pubspec.SectionDependencyOverrides, p.Manifest.DependencyOverrides},
	} {
		names := make([]string, 0, len(section.deps))
		for name := range section.deps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			result = append(result, DeclaredDependency{
				Name:       name,
				Section:    section.name,
				Dependency: section.deps[name],
			})
		}
	}
	return result
}

// LockedVersion returns the version pub resolved for the given package, if any.
func (p Project) LockedVersion(name string) (string, bool) {
	if p.Lockfile == nil {
		return "", false
	}
	pkg, ok := p.Lockfile.Packages[name]
	if !ok || pkg.Version == "" {
		return "", false
	}
	return pkg.Version, true
}

// LoadProjects parses the given manifests along with the pubspec.lock next to them.
// Project paths are made relative to root.
func LoadProjects(parser *pubspec.Parser, root string, manifests []string) ([]Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		absRoot = filepath.Dir(absRoot)
	}
	projects := make([]Project, 0, len(manifests))
	for _, manifest := range manifests {
		m, err := parser.ParseFile(manifest)
		if err != nil {
			return nil, err
		}
		dir := filepath.Dir(manifest)
		lock, err := pubspec.ParseLockfileFile(filepath.Join(dir, lockfileName))
		if err != nil {
			return nil, fmt.Errorf("failed to load lockfile of %s: %w", manifest, err)
		}
		rel, err := filepath.Rel(absRoot, manifest)
		if err != nil {
			rel = manifest
		}
		projects = append(projects, Project{
			Path:     filepath.ToSlash(rel),
			Dir:      dir,
			Manifest: m,
			Lockfile: lock,
		})
	}
	return projects, nil
}
