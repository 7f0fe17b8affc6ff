package listutil

import "testing"

func TestInsertAt(t *testing.T) {
	s := []int{1, 2, 4}
	s = InsertAt(s, 2, 3)
	want := []int{1, 2, 3, 4}
	if len(s) != len(want) {
		t.Fatalf("got %v, want %v", s, want)
	}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("got %v, want %v", s, want)
		}
	}
}

func TestRemoveAt(t *testing.T) {
	s := []int{1, 2, 3, 4}
	s = RemoveAt(s, 1)
	want := []int{1, 3, 4}
	if len(s) != len(want) {
		t.Fatalf("got %v, want %v", s, want)
	}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("got %v, want %v", s, want)
		}
	}
}

func TestMoveRange(t *testing.T) {
	if lo, hi := MoveRange(1, 3); lo != 1 || hi != 3 {
		t.Fatalf("got (%d,%d), want (1,3)", lo, hi)
	}
	if lo, hi := MoveRange(3, 1); lo != 1 || hi != 3 {
		t.Fatalf("got (%d,%d), want (1,3)", lo, hi)
	}
}
