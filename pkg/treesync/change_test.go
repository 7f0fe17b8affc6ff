package treesync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestChangeBus(t *testing.T) {
	Convey("changeBus", t, func() {
		var bus changeBus

		Convey("dispatches to every current subscriber", func() {
			var a, b int
			bus.Subscribe(func(FieldChange) { a++ })
			bus.Subscribe(func(FieldChange) { b++ })

			bus.Emit(FieldChange{})

			So(a, ShouldEqual, 1)
			So(b, ShouldEqual, 1)
		})

		Convey("an unsubscribed handler stops receiving events", func() {
			var count int
			unsub := bus.Subscribe(func(FieldChange) { count++ })
			bus.Emit(FieldChange{})
			unsub()
			bus.Emit(FieldChange{})

			So(count, ShouldEqual, 1)
		})

		Convey("a handler may unsubscribe itself mid-dispatch without corrupting iteration", func() {
			var unsub func()
			var calls int
			unsub = bus.Subscribe(func(FieldChange) {
				calls++
				unsub()
			})
			var other int
			bus.Subscribe(func(FieldChange) { other++ })

			bus.Emit(FieldChange{})
			bus.Emit(FieldChange{})

			So(calls, ShouldEqual, 1)
			So(other, ShouldEqual, 2)
		})

		Convey("a handler may subscribe a new handler mid-dispatch; it only sees future events", func() {
			var later int
			bus.Subscribe(func(FieldChange) {
				bus.Subscribe(func(FieldChange) { later++ })
			})

			bus.Emit(FieldChange{})
			So(later, ShouldEqual, 0)

			bus.Emit(FieldChange{})
			So(later, ShouldEqual, 1)
		})
	})
}
