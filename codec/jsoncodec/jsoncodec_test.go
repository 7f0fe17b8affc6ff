package jsoncodec

import (
	"testing"

	"github.com/wayneeseguin/treesync/pkg/treesync"
)

type point struct {
	X, Y float64
}

func TestRoundTripStruct(t *testing.T) {
	codec := New[point]()
	want := point{X: 1, Y: 2.5}

	encoded := codec.Encode(want)
	got, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeNullIsZeroValue(t *testing.T) {
	codec := New[point]()
	got, err := codec.Decode(treesync.NullValue())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (point{}) {
		t.Fatalf("got %+v, want zero value", got)
	}
}

func TestScalarCodecs(t *testing.T) {
	intCodec := Int()
	if v, err := intCodec.Decode(intCodec.Encode(7)); err != nil || v != 7 {
		t.Fatalf("got (%v, %v), want (7, nil)", v, err)
	}

	strCodec := String()
	if v, err := strCodec.Decode(strCodec.Encode("hi")); err != nil || v != "hi" {
		t.Fatalf("got (%v, %v), want (hi, nil)", v, err)
	}

	boolCodec := Bool()
	if v, err := boolCodec.Decode(boolCodec.Encode(true)); err != nil || v != true {
		t.Fatalf("got (%v, %v), want (true, nil)", v, err)
	}
}
