package treesync

// ValueKind tags the closed set of scalar shapes a Value can carry, plus an
// opaque Blob escape hatch for whatever the serializer collaborator
// round-trips (§3).
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBlob
)

// Value is the opaque tagged value a Cell, FieldChange, or Patch carries.
// The core never interprets a Blob's contents; it is produced and consumed
// only by the transport's serializer collaborator.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string
	Blob any
}

func NullValue() Value                { return Value{Kind: KindNull} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, B: b} }
func IntValue(i int64) Value          { return Value{Kind: KindInt, I: i} }
func FloatValue(f float64) Value      { return Value{Kind: KindFloat, F: f} }
func StringValue(s string) Value      { return Value{Kind: KindString, S: s} }
func BlobValue(v any) Value           { return Value{Kind: KindBlob, Blob: v} }

// IsNull reports whether the value is the null sentinel.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal compares two values for the default (non-epsilon) comparator. Cells
// over float64 may instead install an epsilon comparator (SPEC_FULL.md,
// "floating-point cell equality").
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.B == o.B
	case KindInt:
		return v.I == o.I
	case KindFloat:
		return v.F == o.F
	case KindString:
		return v.S == o.S
	case KindBlob:
		if eq, ok := v.Blob.(interface{ Equal(any) bool }); ok {
			return eq.Equal(o.Blob)
		}
		return v.Blob == o.Blob
	default:
		return false
	}
}
