package pubspec

import (
	"gopkg.in/yaml.v3"
)

// Node is the read-only view of a YAML document node needed to build a Manifest.
// It keeps the classification rules independent of the YAML library in use.
type Node interface {
	// IsNull is true for an explicit null, an empty value or an absent document.
	IsNull() bool
	// IsScalar is true for non-null scalars.
	IsScalar() bool
	IsMapping() bool
	IsSequence() bool
	// Value returns the text of a scalar, as written in the document.
	Value() string
	// Field returns the value stored under key in a mapping.
	Field(key string) (Node, bool)
	// Keys returns the keys of a mapping in document order, duplicates included.
	Keys() []string
	// Items returns the elements of a sequence.
	Items() []Node
	// Line is the 1-based line of the node, or 0 when unknown.
	Line() int
}

// Decoder turns document text into its root Node.
type Decoder func(data []byte) (Node, error)

// DecodeYAML is the default Decoder, backed by gopkg.in/yaml.v3.
func DecodeYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return newYAMLNode(&doc), nil
}

type yamlNode struct {
	n *yaml.Node
}

// newYAMLNode unwraps documents and aliases so that callers only see content nodes.
func newYAMLNode(n *yaml.Node) yamlNode {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return yamlNode{}
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return yamlNode{n: n}
		}
	}
	return yamlNode{}
}

func (y yamlNode) IsNull() bool {
	return y.n == nil || y.n.Kind == 0 || (y.n.Kind == yaml.ScalarNode && y.n.ShortTag() == "!!null")
}

func (y yamlNode) IsScalar() bool {
	return y.n != nil && y.n.Kind == yaml.ScalarNode && !y.IsNull()
}

func (y yamlNode) IsMapping() bool {
	return y.n != nil && y.n.Kind == yaml.MappingNode
}

func (y yamlNode) IsSequence() bool {
	return y.n != nil && y.n.Kind == yaml.SequenceNode
}

func (y yamlNode) Value() string {
	if !y.IsScalar() {
		return ""
	}
	return y.n.Value
}

func (y yamlNode) Field(key string) (Node, bool) {
	if !y.IsMapping() {
		return nil, false
	}
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		if y.n.Content[i].Value == key {
			return newYAMLNode(y.n.Content[i+1]), true
		}
	}
	return nil, false
}

func (y yamlNode) Keys() []string {
	if !y.IsMapping() {
		return nil
	}
	keys := make([]string, 0, len(y.n.Content)/2)
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		keys = append(keys, y.n.Content[i].Value)
	}
	return keys
}

func (y yamlNode) Items() []Node {
	if !y.IsSequence() {
		return nil
	}
	items := make([]Node, 0, len(y.n.Content))
	for _, c := range y.n.Content {
		items = append(items, newYAMLNode(c))
	}
	return items
}

func (y yamlNode) Line() int {
	if y.n == nil {
		return 0
	}
	return y.n.Line
}
