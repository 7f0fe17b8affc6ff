// Package jsoncodec builds treesync.Codec values over encoding/json. It
// is a reference serializer collaborator, not something the core depends
// on — the core only ever sees the opaque treesync.Value it produces.
//
// encoding/json is the one deliberate standard-library dependency in this
// package: none of the teacher's YAML-centric stack (gopkg.in/yaml.v2,
// gopkg.in/yaml.v3) speaks JSON, and no other example in the corpus
// contributes a JSON library, so there is nothing third-party to reach
// for here (see DESIGN.md).
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"github.com/wayneeseguin/treesync/pkg/treesync"
)

// New builds a Codec[T] that marshals/unmarshals T to JSON, carried on
// the wire as a treesync.BlobValue of the raw JSON bytes.
func New[T any]() treesync.Codec[T] {
	return treesync.Codec[T]{
		Encode: func(v T) treesync.Value {
			b, err := json.Marshal(v)
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
				return zero, fmt.Errorf("jsoncodec: value does not carry JSON bytes")
			}
			var v T
			if err := json.Unmarshal(b, &v); err != nil {
				return zero, fmt.Errorf("jsoncodec: decoding %T: %w", v, err)
			}
			return v, nil
		},
	}
}

// Scalar codec constructors for the common leaf types, so a domain model
// doesn't need to hand-write New[int]() etc. at every call site.

func Int() treesync.Codec[int] {
	return treesync.Codec[int]{
		Encode: func(v int) treesync.Value { return treesync.IntValue(int64(v)) },
		Decode: func(raw treesync.Value) (int, error) {
			if raw.Kind != treesync.KindInt {
				return 0, fmt.Errorf("jsoncodec: expected int, got kind %d", raw.Kind)
			}
			return int(raw.I), nil
		},
	}
}

func Float64() treesync.Codec[float64] {
	return treesync.Codec[float64]{
		Encode: func(v float64) treesync.Value { return treesync.FloatValue(v) },
		Decode: func(raw treesync.Value) (float64, error) {
			if raw.Kind != treesync.KindFloat {
				return 0, fmt.Errorf("jsoncodec: expected float, got kind %d", raw.Kind)
			}
			return raw.F, nil
		},
	}
}

func String() treesync.Codec[string] {
	return treesync.Codec[string]{
		Encode: func(v string) treesync.Value { return treesync.StringValue(v) },
		Decode: func(raw treesync.Value) (string, error) {
			if raw.Kind != treesync.KindString {
				return "", fmt.Errorf("jsoncodec: expected string, got kind %d", raw.Kind)
			}
			return raw.S, nil
		},
	}
}

func Bool() treesync.Codec[bool] {
	return treesync.Codec[bool]{
		Encode: func(v bool) treesync.Value { return treesync.BoolValue(v) },
		Decode: func(raw treesync.Value) (bool, error) {
			if raw.Kind != treesync.KindBool {
				return false, fmt.Errorf("jsoncodec: expected bool, got kind %d", raw.Kind)
			}
			return raw.B, nil
		},
	}
}
