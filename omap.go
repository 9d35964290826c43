package picoquant

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// An OrderedMap is a string-keyed map that preserves insertion order.
// Insertion order is observable through serialization and default
// traversal, so the node and edge registries and the structural document
// all use it.
type OrderedMap[V any] struct {
	keys []string
	m    map[string]V
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{m: make(map[string]V)}
}

// Set inserts or updates k. An update keeps k's original position.
func (o *OrderedMap[V]) Set(k string, v V) {
	if _, ok := o.m[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.m[k] = v
}

// Get returns the value under k.
func (o *OrderedMap[V]) Get(k string) (V, bool) {
	v, ok := o.m[k]
	return v, ok
}

// Delete removes k. The remaining keys keep their order.
func (o *OrderedMap[V]) Delete(k string) {
	if _, ok := o.m[k]; !ok {
		return
	}
	delete(o.m, k)
	o.keys = slices.DeleteFunc(o.keys, func(s string) bool { return s == k })
}

// Len returns the number of entries.
func (o *OrderedMap[V]) Len() int { return len(o.m) }

// Keys returns the keys in insertion order.
func (o *OrderedMap[V]) Keys() []string { return append([]string(nil), o.keys...) }

// All iterates over entries in insertion order.
func (o *OrderedMap[V]) All() func(yield func(string, V) bool) {
	return func(yield func(string, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.m[k]) {
				return
			}
		}
	}
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (o *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(o.m[k])
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, recording key order.
func (o *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	*o = OrderedMap[V]{m: make(map[string]V)}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("%v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "")
		}
		k, ok := tok.(string)
		if !ok {
			return errors.Errorf("%v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return errors.Wrap(err, "")
		}
		o.Set(k, v)
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// MarshalYAML renders the map as a YAML mapping in insertion order.
func (o *OrderedMap[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range o.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(o.m[k]); err != nil {
			return nil, errors.Wrap(err, "")
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML parses a YAML mapping, recording key order.
func (o *OrderedMap[V]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("%d", value.Kind)
	}
	*o = OrderedMap[V]{m: make(map[string]V)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v V
		if err := value.Content[i+1].Decode(&v); err != nil {
			return errors.Wrap(err, "")
		}
		o.Set(value.Content[i].Value, v)
	}
	return nil
}
