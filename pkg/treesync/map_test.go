package treesync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTrackedMapLocalOps(t *testing.T) {
	Convey("TrackedMap local operations", t, func() {
		m := NewTrackedMap(cellCodec())
		var fcs []FieldChange
		m.bubbleSubscribe(func(fc FieldChange) { fcs = append(fcs, fc) })

		Convey("Set on an absent key bubbles a replace op with no Old value", func() {
			m.Set("hp", newIntCell())
			So(m.Len(), ShouldEqual, 1)
			So(len(fcs), ShouldEqual, 1)
			So(fcs[0].Path, ShouldResemble, Path{OpSeg("replace")})
			So(fcs[0].Old, ShouldResemble, Value{})
		})

		Convey("Set on a present key unwires the old entry and bubbles its encoded value as Old", func() {
			old := newIntCell()
			old.Set(3)
			m.Set("hp", old)
			fcs = nil

			m.Set("hp", newIntCell())
			So(fcs[0].Old, ShouldResemble, IntValue(3))
		})

		Convey("entries bubble under their key segment", func() {
			c := newIntCell()
			m.Set("hp", c)
			fcs = nil

			c.Set(5)
			So(len(fcs), ShouldEqual, 1)
			So(fcs[0].Path, ShouldResemble, Path{KeySeg("hp")})
		})

		Convey("Remove on an absent key is a silent no-op", func() {
			m.Remove("nope")
			So(len(fcs), ShouldEqual, 0)
		})

		Convey("Remove on a present key unwires it and bubbles a remove op", func() {
			m.Set("hp", newIntCell())
			fcs = nil
			m.Remove("hp")
			So(m.Len(), ShouldEqual, 0)
			So(fcs[0].Path, ShouldResemble, Path{OpSeg("remove")})
		})
	})
}

func TestTrackedMapRouteApplyPatch(t *testing.T) {
	Convey("TrackedMap.routeApplyPatch", t, func() {
		m := NewTrackedMap(cellCodec())
		m.Set("hp", newIntCell())

		Convey("a key segment routes into the entry silently", func() {
			var bubbled bool
			m.bubbleSubscribe(func(FieldChange) { bubbled = true })

			err := m.routeApplyPatch(Path{KeySeg("hp")}, IntValue(5))
			So(err, ShouldBeNil)
			v, _ := m.Get("hp")
			So(v.Get(), ShouldEqual, 5)
			So(bubbled, ShouldBeFalse)
		})

		Convey("an unknown key is rejected", func() {
			err := m.routeApplyPatch(Path{KeySeg("mp")}, IntValue(1))
			rerr, ok := err.(*PathRouteError)
			So(ok, ShouldBeTrue)
			So(rerr.Reason, ShouldEqual, ReasonUnknownKey)
		})

		Convey("a replace opcode sets the keyed entry", func() {
			err := m.routeApplyPatch(Path{OpSeg("replace")}, OpValue(OpPayload{Key: "mp", Item: IntValue(9)}))
			So(err, ShouldBeNil)
			v, ok := m.Get("mp")
			So(ok, ShouldBeTrue)
			So(v.Get(), ShouldEqual, 9)
		})
	})
}

func TestTrackedMapSnapshotFrom(t *testing.T) {
	Convey("TrackedMap.snapshotFrom reconciles keys", t, func() {
		src := NewTrackedMap(cellCodec())
		a := newIntCell()
		a.Set(1)
		src.Set("hp", a)

		dst := NewTrackedMap(cellCodec())
		stale := newIntCell()
		stale.Set(99)
		dst.Set("mp", stale)

		err := dst.snapshotFrom(src)
		So(err, ShouldBeNil)
		So(dst.Len(), ShouldEqual, 1)
		v, ok := dst.Get("hp")
		So(ok, ShouldBeTrue)
		So(v.Get(), ShouldEqual, 1)
		_, stillThere := dst.Get("mp")
		So(stillThere, ShouldBeFalse)
	})
}
