package treesync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValueEqual(t *testing.T) {
	Convey("Value.Equal", t, func() {
		Convey("scalars of the same kind compare by value", func() {
			So(IntValue(3).Equal(IntValue(3)), ShouldBeTrue)
			So(IntValue(3).Equal(IntValue(4)), ShouldBeFalse)
			So(StringValue("a").Equal(StringValue("a")), ShouldBeTrue)
		})

		Convey("values of different kinds are never equal", func() {
			So(IntValue(0).Equal(FloatValue(0)), ShouldBeFalse)
			So(NullValue().Equal(BoolValue(false)), ShouldBeFalse)
		})

		Convey("two null values are equal", func() {
			So(NullValue().Equal(NullValue()), ShouldBeTrue)
		})

		Convey("blob values without an Equal method compare the payload with ==", func() {
			a := BlobValue(OpPayload{Key: "k"})
			b := BlobValue(OpPayload{Key: "k"})
			// OpPayload has no Equal method, so this falls back to == on the
			// any value, which compares the underlying struct by value.
			So(a.Equal(b), ShouldBeTrue)
		})
	})
}
