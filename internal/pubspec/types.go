package pubspec

// Manifest is a parsed pubspec.yaml, see https://dart.dev/tools/pub/pubspec.
type Manifest struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	Author      string
	// Authors keeps the first occurrence of every author, in document order.
	Authors    []string
	Repository string
	SDK        string
	PublishTo  string
	// Environment maps an SDK name (sdk, flutter) to its version constraint.
	Environment map[string]string

	Dependencies        map[string]Dependency
	DevDependencies     map[string]Dependency
	DependencyOverrides map[string]Dependency
}

// Published reports whether the package is meant to be uploaded to a registry.
func (m *Manifest) Published() bool {
	return m.PublishTo != "none"
}

type Kind string

const (
	KindHosted Kind = "hosted"
	KindGit    Kind = "git"
	KindPath   Kind = "path"
	KindSDK    Kind = "sdk"
)

// Dependency is one of HostedDependency, GitDependency, PathDependency or SdkDependency.
type Dependency interface {
	Kind() Kind
	dependency()
}

// HostedDependency is resolved from a package registry.
// An empty Version means any version is accepted, an empty URL means the default registry.
type HostedDependency struct {
	Version string
	URL     string
}

// GitDependency is resolved by cloning URL at Ref, using the package found in Path.
type GitDependency struct {
	URL  string
	Path string
	Ref  string
}

// PathDependency points at a package on the local file system.
type PathDependency struct {
	Path string
}

// SdkDependency is shipped with an SDK, like flutter.
type SdkDependency struct {
	SDK string
}

func (HostedDependency) Kind() Kind { return KindHosted }
func (GitDependency) Kind() Kind    { return KindGit }
func (PathDependency) Kind() Kind   { return KindPath }
func (SdkDependency) Kind() Kind    { return KindSDK }

func (HostedDependency) dependency() {}
func (GitDependency) dependency()    {}
func (PathDependency) dependency()   {}
func (SdkDependency) dependency()    {}
