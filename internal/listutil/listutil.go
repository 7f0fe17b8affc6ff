// Package listutil wraps golang.org/x/exp/slices for the index-shifting
// splices a tracked list performs on insert, remove, and move, so the
// "scan the affected range, never cache off-index" re-tagging discipline
// reads as a single call at each call site.
package listutil

import "golang.org/x/exp/slices"

// InsertAt inserts v at index i, shifting everything from i onward right
// by one.
func InsertAt[T any](s []T, i int, v T) []T {
	return slices.Insert(s, i, v)
}

// RemoveAt removes the element at index i, shifting everything after it
// left by one.
func RemoveAt[T any](s []T, i int) []T {
	return slices.Delete(s, i, i+1)
}

// MoveRange returns [min(from,to), max(from,to)] — the index range a move
// between from and to touches and therefore must be re-tagged.
func MoveRange(from, to int) (lo, hi int) {
	if from <= to {
		return from, to
	}
	return to, from
}
