// Package yamlcodec builds treesync.Codec values over the teacher's own
// YAML stack: gopkg.in/yaml.v2 for the plain byte round trip historically
// used by its config loader, and gopkg.in/yaml.v3 for the richer *yaml.Node
// API, which the node-preserving codec below and the dyff-based test
// diffing in pkg/treesync both rely on for comment/anchor-aware documents.
package yamlcodec

import (
	"fmt"

	"github.com/wayneeseguin/treesync/pkg/treesync"
	yamlv2 "gopkg.in/yaml.v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// New builds a Codec[T] that marshals/unmarshals T with yaml.v2, carried
// on the wire as a BlobValue of the raw YAML bytes.
func New[T any]() treesync.Codec[T] {
	return treesync.Codec[T]{
		Encode: func(v T) treesync.Value {
			b, err := yamlv2.Marshal(v)
			if err != nil {
				return treesync.NullValue()
			}
			return treesync.BlobValue(b)
		},
		Decode: func(raw treesync.Value) (T, error) {
			var zero T
			b, ok := raw.Blob.([]byte)
			if !ok {
				if raw.IsNull() {
					return zero, nil
				}
				return zero, fmt.Errorf("yamlcodec: value does not carry YAML bytes")
			}
			var v T
			if err := yamlv2.Unmarshal(b, &v); err != nil {
				return zero, fmt.Errorf("yamlcodec: decoding %T: %w", v, err)
			}
			return v, nil
		},
	}
}

// NewNodeCodec builds a Codec[T] that round-trips through a *yaml.v3 Node
// instead of raw bytes, so intermediate snapshot fixtures stay diffable
// with dyff (which itself loads documents as yaml.v3 nodes) without a
// re-parse at every comparison.
func NewNodeCodec[T any]() treesync.Codec[T] {
	return treesync.Codec[T]{
		Encode: func(v T) treesync.Value {
			var node yamlv3.Node
			if err := node.Encode(v); err != nil {
				return treesync.NullValue()
			}
			return treesync.BlobValue(&node)
		},
		Decode: func(raw treesync.Value) (T, error) {
			var zero T
			node, ok := raw.Blob.(*yamlv3.Node)
			if !ok {
				if raw.IsNull() {
					return zero, nil
				}
				return zero, fmt.Errorf("yamlcodec: value does not carry a yaml.v3 node")
			}
			var v T
			if err := node.Decode(&v); err != nil {
				return zero, fmt.Errorf("yamlcodec: decoding %T: %w", v, err)
			}
			return v, nil
		},
	}
}
