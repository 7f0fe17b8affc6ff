package treesync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wayneeseguin/treesync/internal/utils/tree"
)

// SegmentKind distinguishes the three closed variants a Segment can be, plus
// the reserved-opcode form a list or map accepts on its incoming side.
// Kind is assigned by the owner doing the routing, not by the literal shape
// alone (§4.A) — Tokenize only tells us how a token was spelled.
type SegmentKind int

const (
	// KindName addresses a declared member of a TrackedNode.
	KindName SegmentKind = iota
	// KindIndex addresses an element of a TrackedList by position.
	KindIndex
	// KindKey addresses an element of a TrackedMap by key.
	KindKey
	// KindOp addresses a reserved structural operation (add, insert,
	// remove, replace, move, clear) on a list or map.
	KindOp
)

func (k SegmentKind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindIndex:
		return "index"
	case KindKey:
		return "key"
	case KindOp:
		return "op"
	default:
		return "unknown"
	}
}

// Segment is one step of a Path: a field name, a list index, a map key, or
// a reserved opcode.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index uint32
	Key   string
}

// NameSeg builds a Name segment.
func NameSeg(name string) Segment { return Segment{Kind: KindName, Name: name} }

// IndexSeg builds an Index segment.
func IndexSeg(i uint32) Segment { return Segment{Kind: KindIndex, Index: i} }

// KeySeg builds a Key segment.
func KeySeg(k string) Segment { return Segment{Kind: KindKey, Key: k} }

// OpSeg builds a reserved-opcode segment.
func OpSeg(name string) Segment { return Segment{Kind: KindOp, Name: name} }

// ReservedOps is the closed set of opcode segment names a list or map
// routes structurally rather than through a declared member (§6).
var ReservedOps = map[string]bool{
	"add":     true,
	"insert":  true,
	"remove":  true,
	"replace": true,
	"move":    true,
	"clear":   true,
}

// Equal reports whether two segments address the same thing.
func (s Segment) Equal(o Segment) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindName, KindOp:
		return s.Name == o.Name
	case KindIndex:
		return s.Index == o.Index
	case KindKey:
		return s.Key == o.Key
	default:
		return false
	}
}

func (s Segment) format() string {
	switch s.Kind {
	case KindIndex:
		return fmt.Sprintf("[%d]", s.Index)
	case KindKey:
		return fmt.Sprintf("[%q]", s.Key)
	default:
		return s.Name
	}
}

// Path is an ordered sequence of Segments addressing a leaf from the root.
// The empty Path denotes "this node" (§3).
type Path []Segment

// Equal reports structural equality between two paths.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Prepend returns a new Path with seg placed at the head, used when a
// change bubbles up through a parent (§4.C). The receiver is never mutated.
func Prepend(seg Segment, p Path) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, seg)
	out = append(out, p...)
	return out
}

// SplitHead separates the first segment of a path from the rest, used when
// routing a patch inward (§4.C). ok is false for an empty path.
func SplitHead(p Path) (seg Segment, rest Path, ok bool) {
	if len(p) == 0 {
		return Segment{}, nil, false
	}
	return p[0], p[1:], true
}

// Format renders a Path in its literal wire form; Parse(Format(p)) round
// trips structurally, though a raw segment's Kind is only recovered once
// routed against an owner.
func (p Path) Format() string {
	var b strings.Builder
	for i, seg := range p {
		switch seg.Kind {
		case KindIndex, KindKey:
			b.WriteString(seg.format())
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.format())
		}
	}
	return b.String()
}

func (p Path) String() string { return p.Format() }

// Parse parses a path literal into a Path of raw segments. Segment.Kind is
// assigned from the literal's shape as a first approximation
// (KindIndex for "[N]", KindKey for ["K"], KindName/KindOp for bare runs);
// routing re-validates the kind against what the addressed owner expects
// and rejects a mismatch with PathRoute, per §4.A's "owner validates at
// dispatch time".
func Parse(literal string) (Path, error) {
	raw, err := tree.Tokenize(literal)
	if err != nil {
		return nil, &PathParseError{Literal: literal, Cause: err}
	}

	path := make(Path, 0, len(raw))
	for _, r := range raw {
		switch r.Shape {
		case tree.BracketInt:
			n, err := strconv.ParseUint(r.Text, 10, 32)
			if err != nil {
				return nil, &PathParseError{Literal: literal, Cause: fmt.Errorf("bad index %q: %w", r.Text, err)}
			}
			path = append(path, IndexSeg(uint32(n)))
		case tree.BracketString:
			path = append(path, KeySeg(r.Text))
		default:
			if strings.HasPrefix(r.Text, "_") {
				return nil, &PathParseError{Literal: literal, Cause: fmt.Errorf("segment %q must not start with '_'", r.Text)}
			}
			if ReservedOps[r.Text] {
				path = append(path, OpSeg(r.Text))
			} else {
				path = append(path, NameSeg(r.Text))
			}
		}
	}
	return path, nil
}
