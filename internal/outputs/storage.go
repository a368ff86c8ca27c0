package outputs

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const typeKey = "type"

// LoadResult is the outcome of looking up a required entry in persisted
// state.
type LoadResult int

const (
	LoadOK LoadResult = iota
	LoadMissing
	LoadWrongType
)

func (r LoadResult) String() string {
	switch r {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadWrongType:
		return "wrong type"
	}
	return "unknown"
}

// lookupString finds the string value stored under key in a mapping node.
func lookupString(m *yaml.Node, key string) (string, LoadResult) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Value != key {
			continue
		}
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			return "", LoadWrongType
		}
		return v.Value, LoadOK
	}
	return "", LoadMissing
}

func stringNode(s string, style yaml.Style) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: style}
}

// MarshalYAML writes the active list as a mapping from registry id to output,
// plus a "type" entry naming the kind.
func (c *Collection[T]) MarshalYAML() (any, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, o := range c.active() {
		var val yaml.Node
		if err := val.Encode(o); err != nil {
			return nil, fmt.Errorf("encode %s %d: %w", c.kind.Tag, o.Index(), err)
		}
		m.Content = append(m.Content, stringNode(strconv.Itoa(o.Index()), yaml.DoubleQuotedStyle), &val)
	}
	m.Content = append(m.Content, stringNode(typeKey, 0), stringNode(c.kind.Tag, 0))
	return m, nil
}

// DecodeState validates persisted state and decodes the outputs it holds,
// keyed by registry id. It does not touch the collection.
func (c *Collection[T]) DecodeState(node *yaml.Node) (map[string]T, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, &SchemaError{Kind: c.kind.Tag, Reason: "state is not a mapping"}
	}

	tag, res := lookupString(node, typeKey)
	switch res {
	case LoadMissing:
		return nil, &SchemaError{Kind: c.kind.Tag, Reason: `missing "type" entry`}
	case LoadWrongType:
		return nil, &SchemaError{Kind: c.kind.Tag, Reason: `"type" entry is not a string`}
	}
	if tag != c.kind.Tag {
		return nil, &SchemaError{Kind: c.kind.Tag, Reason: fmt.Sprintf("state holds %s outputs", tag)}
	}

	restored := make(map[string]T, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
			return nil, &TypeMismatchError{Kind: c.kind.Tag, Key: k.Value, Reason: "is not a string"}
		}
		if k.Value == typeKey {
			continue
		}
		if v.Tag != "!"+c.kind.Tag {
			return nil, &TypeMismatchError{Kind: c.kind.Tag, Key: k.Value, Reason: "is not a " + c.kind.Tag}
		}
		out, err := c.kind.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("storage loading (%s outputs): key %s: %w", c.kind.Tag, k.Value, err)
		}
		restored[k.Value] = out
	}
	return restored, nil
}

// Deserialize validates persisted state and reconciles it with the live
// registry.
func (c *Collection[T]) Deserialize(node *yaml.Node) error {
	restored, err := c.DecodeState(node)
	if err != nil {
		return err
	}
	c.Reconcile(restored)
	return nil
}

func (c *Collection[T]) UnmarshalYAML(node *yaml.Node) error {
	return c.Deserialize(node)
}
