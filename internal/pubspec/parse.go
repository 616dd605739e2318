package pubspec

import (
	"fmt"
	"os"
	"slices"
)

// Names of the manifest mappings holding dependencies.
const (
	SectionDependencies        = "dependencies"
	SectionDevDependencies     = "dev_dependencies"
	SectionDependencyOverrides = "dependency_overrides"
)

var sections = []string{SectionDependencies, SectionDevDependencies, SectionDependencyOverrides}

// Parser builds Manifests from documents read by its Decoder.
// A Parser holds no state between calls and may be shared.
type Parser struct {
	decode Decoder
}

func NewParser(decode Decoder) *Parser {
	return &Parser{decode: decode}
}

var defaultParser = NewParser(DecodeYAML)

// Parse parses pubspec.yaml contents with the yaml.v3 engine.
func Parse(data []byte) (*Manifest, error) {
	return defaultParser.Parse(data)
}

// ParseFile reads and parses the pubspec.yaml at path with the yaml.v3 engine.
func ParseFile(path string) (*Manifest, error) {
	return defaultParser.ParseFile(path)
}

func (p *Parser) ParseFile(path string) (*Manifest, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := p.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse returns the manifest described by data. No manifest is returned when any entry is invalid.
func (p *Parser) Parse(data []byte) (*Manifest, error) {
	root, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if root.IsNull() {
		return nil, &MissingRequiredFieldError{Field: "name"}
	}
	if !root.IsMapping() {
		return nil, fmt.Errorf("%w: document root is not a mapping", ErrMalformedDocument)
	}
	if key, at, found := duplicateKey(root, ""); found {
		if slices.Contains(sections, at) {
			return nil, fmt.Errorf("%s: %w %q", at, ErrDuplicateDependency, key)
		}
		if at == "" {
			at = "document root"
		}
		return nil, fmt.Errorf("%w: %s: duplicate key %q", ErrMalformedDocument, at, key)
	}

	m := &Manifest{}
	name, found, err := scalarField(root, "name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &MissingRequiredFieldError{Field: "name"}
	}
	m.Name = name

	for _, f := range []struct {
		key string
		dst *string
	}{
		{"version", &m.Version},
		{"description", &m.Description},
		{"homepage", &m.Homepage},
		{"author", &m.Author},
		{"repository", &m.Repository},
		{"sdk", &m.SDK},
		{"publish_to", &m.PublishTo},
	} {
		if *f.dst, _, err = scalarField(root, f.key); err != nil {
			return nil, err
		}
	}

	if m.Authors, err = parseAuthors(root); err != nil {
		return nil, err
	}
	if m.Environment, err = parseEnvironment(root); err != nil {
		return nil, err
	}
	if m.Dependencies, err = parseDependencies(root, SectionDependencies); err != nil {
		return nil, err
	}
	if m.DevDependencies, err = parseDependencies(root, SectionDevDependencies); err != nil {
		return nil, err
	}
	if m.DependencyOverrides, err = parseDependencies(root, SectionDependencyOverrides); err != nil {
		return nil, err
	}
	return m, nil
}

// ClassifyDependency turns the value of a dependency entry into its Dependency variant.
// The first matching shape wins:
//
//	foo: ^1.0.0                              hosted, with a version constraint
//	foo:                                     hosted, any version
//	foo: {hosted: <url|{url}>, version: v}   hosted, on a custom registry
//	foo: {git: <url|{url, ref, path}>}       git
//	foo: {path: ../foo}                      path
//	foo: {sdk: flutter}                      sdk
func ClassifyDependency(name string, node Node) (Dependency, error) {
	if node.IsScalar() {
		return HostedDependency{Version: node.Value()}, nil
	}
	if node.IsNull() {
		return HostedDependency{}, nil
	}
	if !node.IsMapping() {
		return nil, &UnrecognizedDependencyShapeError{Dependency: name, Line: node.Line()}
	}

	if hosted, ok := node.Field("hosted"); ok {
		version, ok := node.Field("version")
		if !ok || !version.IsScalar() || version.Value() == "" {
			return nil, &MissingRequiredFieldError{Field: "version", Dependency: name, Line: node.Line()}
		}
		dep := HostedDependency{Version: version.Value()}
		switch {
		case hosted.IsMapping():
			url, ok := hosted.Field("url")
			if !ok || !url.IsScalar() {
				return nil, &MissingRequiredFieldError{Field: "hosted.url", Dependency: name, Line: hosted.Line()}
			}
			dep.URL = url.Value()
		case hosted.IsScalar():
			dep.URL = hosted.Value()
		}
		return dep, nil
	}

	if git, ok := node.Field("git"); ok {
		switch {
		case git.IsMapping():
			url, ok := git.Field("url")
			if !ok || !url.IsScalar() {
				return nil, &MissingRequiredFieldError{Field: "git.url", Dependency: name, Line: git.Line()}
			}
			return GitDependency{
				URL:  url.Value(),
				Ref:  optionalScalar(git, "ref"),
				Path: optionalScalar(git, "path"),
			}, nil
		case git.IsScalar():
			return GitDependency{URL: git.Value()}, nil
		default:
			return nil, &MissingRequiredFieldError{Field: "git.url", Dependency: name, Line: node.Line()}
		}
	}

	if path, ok := node.Field("path"); ok && path.IsScalar() {
		return PathDependency{Path: path.Value()}, nil
	}

	if sdk, ok := node.Field("sdk"); ok && sdk.IsScalar() {
		return SdkDependency{SDK: sdk.Value()}, nil
	}

	return nil, &UnrecognizedDependencyShapeError{Dependency: name, Line: node.Line(), Keys: node.Keys()}
}

func parseDependencies(root Node, section string) (map[string]Dependency, error) {
	node, ok := root.Field(section)
	if !ok || node.IsNull() {
		return nil, nil
	}
	if !node.IsMapping() {
		return nil, fmt.Errorf("%w: %s must be a mapping", ErrMalformedDocument, section)
	}
	names := node.Keys()
	if len(names) == 0 {
		return nil, nil
	}
	deps := make(map[string]Dependency, len(names))
	for _, name := range names {
		value, _ := node.Field(name)
		dep, err := ClassifyDependency(name, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		deps[name] = dep
	}
	return deps, nil
}

func parseAuthors(root Node) ([]string, error) {
	node, ok := root.Field("authors")
	if !ok || node.IsNull() {
		return nil, nil
	}
	if !node.IsSequence() {
		return nil, fmt.Errorf("%w: authors must be a list", ErrMalformedDocument)
	}
	var authors []string
	seen := map[string]struct{}{}
	for _, item := range node.Items() {
		if !item.IsScalar() {
			return nil, fmt.Errorf("%w: authors must only contain strings", ErrMalformedDocument)
		}
		if _, dup := seen[item.Value()]; dup {
			continue
		}
		seen[item.Value()] = struct{}{}
		authors = append(authors, item.Value())
	}
	return authors, nil
}

func parseEnvironment(root Node) (map[string]string, error) {
	node, ok := root.Field("environment")
	if !ok || node.IsNull() {
		return nil, nil
	}
	if !node.IsMapping() {
		return nil, fmt.Errorf("%w: environment must be a mapping", ErrMalformedDocument)
	}
	var env map[string]string
	for _, key := range node.Keys() {
		value, _, err := scalarField(node, key)
		if err != nil {
			return nil, err
		}
		if env == nil {
			env = make(map[string]string)
		}
		env[key] = value
	}
	return env, nil
}

// duplicateKey finds the first key declared twice in a mapping of the tree rooted at node.
// at is the dotted path of that mapping, empty for node itself.
func duplicateKey(node Node, path string) (key, at string, found bool) {
	switch {
	case node.IsMapping():
		seen := map[string]struct{}{}
		for _, k := range node.Keys() {
			if _, dup := seen[k]; dup {
				return k, path, true
			}
			seen[k] = struct{}{}
		}
		for _, k := range node.Keys() {
			child, _ := node.Field(k)
			if key, at, found := duplicateKey(child, join(path, k)); found {
				return key, at, true
			}
		}
	case node.IsSequence():
		for i, item := range node.Items() {
			if key, at, found := duplicateKey(item, join(path, fmt.Sprint(i))); found {
				return key, at, true
			}
		}
	}
	return "", "", false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// scalarField returns the scalar stored under key. Absent and null values are reported as not found.
func scalarField(node Node, key string) (string, bool, error) {
	value, ok := node.Field(key)
	if !ok || value.IsNull() {
		return "", false, nil
	}
	if !value.IsScalar() {
		return "", false, fmt.Errorf("%w: field %q at line %d must be a scalar", ErrMalformedDocument, key, value.Line())
	}
	return value.Value(), true, nil
}

func optionalScalar(node Node, key string) string {
	value, ok := node.Field(key)
	if !ok || !value.IsScalar() {
		return ""
	}
	return value.Value()
}
