// Package goccyyaml reads pubspec documents with github.com/goccy/go-yaml instead of yaml.v3.
package goccyyaml

import (
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
)

// Decode is a pubspec.Decoder backed by the goccy/go-yaml AST.
// Duplicate mapping keys are kept, pubspec.Parser reports them the same way for every engine.
func Decode(data []byte) (pubspec.Node, error) {
	file, err := parser.ParseBytes(data, 0, parser.AllowDuplicateMapKey())
	if err != nil {
		return nil, err
	}
	if len(file.Docs) == 0 || file.Docs[0] == nil || file.Docs[0].Body == nil {
		return node{}, nil
	}
	body := file.Docs[0].Body
	anchors := map[string]ast.Node{}
	ast.Walk(anchorCollector(anchors), body)
	return wrap(body, anchors), nil
}

type anchorCollector map[string]ast.Node

func (c anchorCollector) Visit(n ast.Node) ast.Visitor {
	if a, ok := n.(*ast.AnchorNode); ok && a.Name != nil {
		c[a.Name.GetToken().Value] = a.Value
	}
	return c
}

type node struct {
	n       ast.Node
	anchors map[string]ast.Node
}

// wrap strips tags and anchors and resolves aliases.
func wrap(n ast.Node, anchors map[string]ast.Node) node {
	for i := 0; n != nil && i <= len(anchors); {
		switch v := n.(type) {
		case *ast.TagNode:
			n = v.Value
		case *ast.AnchorNode:
			n = v.Value
		case *ast.AliasNode:
			if v.Value == nil {
				return node{anchors: anchors}
			}
			n = anchors[v.Value.GetToken().Value]
			i++
		default:
			return node{n: n, anchors: anchors}
		}
	}
	return node{anchors: anchors}
}

func (y node) IsNull() bool {
	if y.n == nil {
		return true
	}
	_, ok := y.n.(*ast.NullNode)
	return ok
}

func (y node) IsScalar() bool {
	switch y.n.(type) {
	case *ast.StringNode, *ast.LiteralNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode,
		*ast.InfinityNode, *ast.NanNode:
		return true
	}
	return false
}

func (y node) IsMapping() bool {
	switch y.n.(type) {
	case *ast.MappingNode, *ast.MappingValueNode:
		return true
	}
	return false
}

func (y node) IsSequence() bool {
	_, ok := y.n.(*ast.SequenceNode)
	return ok
}

func (y node) Value() string {
	switch v := y.n.(type) {
	case *ast.StringNode:
		return v.Value
	case *ast.LiteralNode:
		if v.Value == nil {
			return ""
		}
		return v.Value.Value
	}
	if !y.IsScalar() {
		return ""
	}
	return y.n.GetToken().Value
}

func (y node) entries() []*ast.MappingValueNode {
	switch v := y.n.(type) {
	case *ast.MappingNode:
		return v.Values
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{v}
	}
	return nil
}

func keyOf(mv *ast.MappingValueNode) string {
	if mv.Key == nil || mv.Key.GetToken() == nil {
		return ""
	}
	return mv.Key.GetToken().Value
}

func (y node) Field(key string) (pubspec.Node, bool) {
	for _, mv := range y.entries() {
		if keyOf(mv) == key {
			return wrap(mv.Value, y.anchors), true
		}
	}
	return nil, false
}

func (y node) Keys() []string {
	entries := y.entries()
	if entries == nil {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for _, mv := range entries {
		keys = append(keys, keyOf(mv))
	}
	return keys
}

func (y node) Items() []pubspec.Node {
	seq, ok := y.n.(*ast.SequenceNode)
	if !ok {
		return nil
	}
	items := make([]pubspec.Node, 0, len(seq.Values))
	for _, v := range seq.Values {
		items = append(items, wrap(v, y.anchors))
	}
	return items
}

func (y node) Line() int {
	if y.n == nil || y.n.GetToken() == nil || y.n.GetToken().Position == nil {
		return 0
	}
	return y.n.GetToken().Position.Line
}
