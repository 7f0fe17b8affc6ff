// Package tree tokenizes the literal wire form of a treesync path into raw,
// shape-tagged segments. It knows nothing about declared members, reserved
// opcodes, or collection semantics — that belongs to the owner doing the
// routing (pkg/treesync), per the rule that segment kind is inferred from
// the owner, not the literal.
package tree

import "fmt"

// Shape records how a raw segment was spelled in the literal form. It does
// NOT say whether the segment is a Name, Index, Key, or opcode — only what
// punctuation surrounded it.
type Shape int

const (
	// Bare is a dotted identifier: Counters, move, clear.
	Bare Shape = iota
	// BracketInt is an unquoted bracketed integer: [42].
	BracketInt
	// BracketString is a quoted bracketed string: ["K"].
	BracketString
)

// RawSegment is one token produced by Tokenize, with its original shape
// preserved so a caller can validate it against what the addressed owner
// expects.
type RawSegment struct {
	Text  string
	Shape Shape
}

// SyntaxError reports a malformed path literal.
type SyntaxError struct {
	Problem  string
	Position int
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s at position %d", e.Problem, e.Position)
}
