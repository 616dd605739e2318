package pubspec

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lockfile is a parsed pubspec.lock.
type Lockfile struct {
	Packages map[string]LockedPackage `yaml:"packages"`
	SDKs     map[string]string        `yaml:"sdks"`
}

// LockedPackage is the version pub resolved for one package.
type LockedPackage struct {
	Version string `yaml:"version"`
	// Source is one of hosted, git, path or sdk.
	Source string `yaml:"source"`
	// Dependency is "direct main", "direct dev", "direct overridden" or "transitive".
	Dependency  string          `yaml:"dependency"`
	Description lockDescription `yaml:"description"`
}

// Direct reports whether the package is declared in the manifest.
func (p LockedPackage) Direct() bool {
	return strings.HasPrefix(p.Dependency, "direct")
}

// Dev reports whether the package is only needed for development.
func (p LockedPackage) Dev() bool {
	return strings.Contains(p.Dependency, "dev")
}

// Ref is the commit a git package was resolved to.
func (p LockedPackage) Ref() string {
	return p.Description.ResolvedRef
}

type lockDescription struct {
	Name        string
	URL         string
	ResolvedRef string
}

var _ yaml.Unmarshaler = &lockDescription{}

// UnmarshalYAML accepts both description formats: a bare name (sdk packages) or a mapping.
func (d *lockDescription) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Name = value.Value
		return nil
	}
	var m struct {
		Name        string `yaml:"name"`
		URL         string `yaml:"url"`
		ResolvedRef string `yaml:"resolved-ref"`
	}
	if err := value.Decode(&m); err != nil {
		return err
	}
	d.Name, d.URL, d.ResolvedRef = m.Name, m.URL, m.ResolvedRef
	return nil
}

func ParseLockfile(data []byte) (*Lockfile, error) {
	lock := &Lockfile{}
	if err := yaml.Unmarshal(data, lock); err != nil {
		return nil, fmt.Errorf("failed to decode lockfile: %w", err)
	}
	return lock, nil
}

// ParseLockfileFile reads the pubspec.lock at path. A missing file yields a nil Lockfile and no error.
func ParseLockfileFile(path string) (*Lockfile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return ParseLockfile(contents)
}
