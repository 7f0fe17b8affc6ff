package tree

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []RawSegment
	}{
		{"counter", []RawSegment{{"counter", Bare}}},
		{"boxes.[3].Position", []RawSegment{
			{"boxes", Bare}, {"3", BracketInt}, {"Position", Bare},
		}},
		{`Counters["hp"].value`, []RawSegment{
			{"Counters", Bare}, {"hp", BracketString}, {"value", Bare},
		}},
		{"boxes.move", []RawSegment{{"boxes", Bare}, {"move", Bare}}},
	}

	for _, c := range cases {
		got, err := Tokenize(c.in)
		if err != nil {
			t.Fatalf("Tokenize(%q): unexpected error: %v", c.in, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Tokenize(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	got, err := Tokenize("")
	if err != nil {
		t.Fatalf("Tokenize(\"\"): unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %#v, want empty", got)
	}
}

func TestTokenizeErrors(t *testing.T) {
	bad := []string{
		".boxes",
		"boxes.",
		"boxes[3",
		`boxes["hp]`,
		"boxes..x",
		"boxes[]",
		"boxes[[3]]",
	}
	for _, in := range bad {
		if _, err := Tokenize(in); err == nil {
			t.Errorf("Tokenize(%q): expected error, got none", in)
		}
	}
}
