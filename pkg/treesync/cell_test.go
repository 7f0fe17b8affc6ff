package treesync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func intCodec() Codec[int] {
	return Codec[int]{
		Encode: func(v int) Value { return IntValue(int64(v)) },
		Decode: func(v Value) (int, error) {
			if v.Kind != KindInt {
				return 0, &TypeMismatchError{Wanted: "int", Got: v.Kind}
			}
			return int(v.I), nil
		},
	}
}

func TestCellSet(t *testing.T) {
	Convey("Cell.Set", t, func() {
		c := NewCell(0, DefaultEqual[int](), intCodec())

		Convey("a changed value fires OnValueChanged and bubbles a FieldChange", func() {
			var seen []int
			c.OnValueChanged(func(v int) { seen = append(seen, v) })

			var fcs []FieldChange
			c.Subscribe(func(fc FieldChange) { fcs = append(fcs, fc) })

			c.Set(5)

			So(seen, ShouldResemble, []int{5})
			So(len(fcs), ShouldEqual, 1)
			So(fcs[0].Path, ShouldResemble, Path{})
			So(fcs[0].New, ShouldResemble, IntValue(5))
		})

		Convey("setting the same value is a no-op", func() {
			c.Set(5)

			var changed bool
			c.OnValueChanged(func(int) { changed = true })
			var bubbled bool
			c.Subscribe(func(FieldChange) { bubbled = true })

			c.Set(5)

			So(changed, ShouldBeFalse)
			So(bubbled, ShouldBeFalse)
		})

		Convey("TrackOutgoing=false suppresses the FieldChange but not local observers", func() {
			c.TrackOutgoing = false
			var changed bool
			c.OnValueChanged(func(int) { changed = true })
			var bubbled bool
			c.Subscribe(func(FieldChange) { bubbled = true })

			c.Set(9)

			So(changed, ShouldBeTrue)
			So(bubbled, ShouldBeFalse)
		})
	})
}

func TestCellApplyPatch(t *testing.T) {
	Convey("Cell.ApplyPatch", t, func() {
		c := NewCell(0, DefaultEqual[int](), intCodec())

		Convey("a changed value fires OnPatched and OnValueChanged, never a FieldChange", func() {
			var patched, changed bool
			c.OnPatched(func(int) { patched = true })
			c.OnValueChanged(func(int) { changed = true })
			var bubbled bool
			c.Subscribe(func(FieldChange) { bubbled = true })

			err := c.ApplyPatch(IntValue(7))

			So(err, ShouldBeNil)
			So(c.Get(), ShouldEqual, 7)
			So(patched, ShouldBeTrue)
			So(changed, ShouldBeTrue)
			So(bubbled, ShouldBeFalse)
		})

		Convey("a mismatched value kind is reported and leaves the cell untouched", func() {
			err := c.ApplyPatch(StringValue("nope"))
			So(err, ShouldHaveSameTypeAs, &TypeMismatchError{})
			So(c.Get(), ShouldEqual, 0)
		})

		Convey("AcceptIncoming=false silently drops the patch", func() {
			c.AcceptIncoming = false
			err := c.ApplyPatch(IntValue(7))
			So(err, ShouldBeNil)
			So(c.Get(), ShouldEqual, 0)
		})
	})
}

func TestCellEpsilonEquality(t *testing.T) {
	Convey("a Cell[float64] using Epsilon ignores changes within tolerance", t, func() {
		c := NewCell(1.0, Epsilon(0.01), Codec[float64]{
			Encode: func(v float64) Value { return FloatValue(v) },
			Decode: func(v Value) (float64, error) { return v.F, nil },
		})

		var bubbled int
		c.Subscribe(func(FieldChange) { bubbled++ })

		c.Set(1.005)
		c.Set(1.02)

		So(bubbled, ShouldEqual, 1)
		So(c.Get(), ShouldEqual, 1.02)
	})
}
