package pubspec

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Marshal writes m as canonical pubspec YAML. Parsing the output yields a Manifest equal to m.
func Marshal(m *Manifest) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendScalar(root, "name", m.Name)
	for _, f := range []struct {
		key   string
		value string
	}{
		{"version", m.Version},
		{"description", m.Description},
		{"homepage", m.Homepage},
		{"author", m.Author},
		{"repository", m.Repository},
		{"sdk", m.SDK},
		{"publish_to", m.PublishTo},
	} {
		if f.value != "" {
			appendScalar(root, f.key, f.value)
		}
	}
	if len(m.Authors) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, a := range m.Authors {
			seq.Content = append(seq.Content, str(a))
		}
		root.Content = append(root.Content, str("authors"), seq)
	}
	if len(m.Environment) > 0 {
		env := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range sortedKeys(m.Environment) {
			appendScalar(env, k, m.Environment[k])
		}
		root.Content = append(root.Content, str("environment"), env)
	}
	for _, section := range []struct {
		key  string
		deps map[string]Dependency
	}{
		{SectionDependencies, m.Dependencies},
		{SectionDevDependencies, m.DevDependencies},
		{SectionDependencyOverrides, m.DependencyOverrides},
	} {
		if len(section.deps) == 0 {
			continue
		}
		node, err := dependenciesNode(section.deps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section.key, err)
		}
		root.Content = append(root.Content, str(section.key), node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func dependenciesNode(deps map[string]Dependency) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range sortedKeys(deps) {
		value, err := dependencyNode(deps[name])
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		node.Content = append(node.Content, str(name), value)
	}
	return node, nil
}

func dependencyNode(dep Dependency) (*yaml.Node, error) {
	switch d := dep.(type) {
	case HostedDependency:
		switch {
		case d.URL != "" && d.Version == "":
			return nil, fmt.Errorf("hosted dependency on %s needs a version", d.URL)
		case d.URL != "":
			hosted := &yaml.Node{Kind: yaml.MappingNode}
			appendScalar(hosted, "url", d.URL)
			node := &yaml.Node{Kind: yaml.MappingNode}
			node.Content = append(node.Content, str("hosted"), hosted)
			appendScalar(node, "version", d.Version)
			return node, nil
		case d.Version != "":
			return str(d.Version), nil
		default:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
	case GitDependency:
		node := &yaml.Node{Kind: yaml.MappingNode}
		if d.Ref == "" && d.Path == "" {
			appendScalar(node, "git", d.URL)
			return node, nil
		}
		git := &yaml.Node{Kind: yaml.MappingNode}
		appendScalar(git, "url", d.URL)
		if d.Ref != "" {
			appendScalar(git, "ref", d.Ref)
		}
		if d.Path != "" {
			appendScalar(git, "path", d.Path)
		}
		node.Content = append(node.Content, str("git"), git)
		return node, nil
	case PathDependency:
		node := &yaml.Node{Kind: yaml.MappingNode}
		appendScalar(node, "path", d.Path)
		return node, nil
	case SdkDependency:
		node := &yaml.Node{Kind: yaml.MappingNode}
		appendScalar(node, "sdk", d.SDK)
		return node, nil
	default:
		return nil, fmt.Errorf("unsupported dependency type %T", dep)
	}
}

func appendScalar(mapping *yaml.Node, key, value string) {
	mapping.Content = append(mapping.Content, str(key), str(value))
}

// str builds a string scalar; the encoder quotes values that would otherwise read as numbers or booleans.
func str(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type jsonDependency struct {
	Kind    Kind   `json:"kind"`
	Version string `json:"version,omitempty"`
	URL     string `json:"url,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Path    string `json:"path,omitempty"`
	SDK     string `json:"sdk,omitempty"`
}

type jsonManifest struct {
	Name                string                    `json:"name"`
	Version             string                    `json:"version,omitempty"`
	Description         string                    `json:"description,omitempty"`
	Homepage            string                    `json:"homepage,omitempty"`
	Author              string                    `json:"author,omitempty"`
	Authors             []string                  `json:"authors,omitempty"`
	Repository          string                    `json:"repository,omitempty"`
	SDK                 string                    `json:"sdk,omitempty"`
	PublishTo           string                    `json:"publish_to,omitempty"`
	Environment         map[string]string         `json:"environment,omitempty"`
	Dependencies        map[string]jsonDependency `json:"dependencies,omitempty"`
	DevDependencies     map[string]jsonDependency `json:"dev_dependencies,omitempty"`
	DependencyOverrides map[string]jsonDependency `json:"dependency_overrides,omitempty"`
}

// MarshalJSON renders dependencies as objects carrying a "kind" discriminator.
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonManifest{
		Name:                m.Name,
		Version:             m.Version,
		Description:         m.Description,
		Homepage:            m.Homepage,
		Author:              m.Author,
		Authors:             m.Authors,
		Repository:          m.Repository,
		SDK:                 m.SDK,
		PublishTo:           m.PublishTo,
		Environment:         m.Environment,
		Dependencies:        toJSONDependencies(m.Dependencies),
		DevDependencies:     toJSONDependencies(m.DevDependencies),
		DependencyOverrides: toJSONDependencies(m.DependencyOverrides),
	})
}

func toJSONDependencies(deps map[string]Dependency) map[string]jsonDependency {
	if len(deps) == 0 {
		return nil
	}
	out := make(map[string]jsonDependency, len(deps))
	for name, dep := range deps {
		j := jsonDependency{Kind: dep.Kind()}
		switch d := dep.(type) {
		case HostedDependency:
			j.Version, j.URL = d.Version, d.URL
		case GitDependency:
			j.URL, j.Ref, j.Path = d.URL, d.Ref, d.Path
		case PathDependency:
			j.Path = d.Path
		case SdkDependency:
			j.SDK = d.SDK
		}
		out[name] = j
	}
	return out
}
