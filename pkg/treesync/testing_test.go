package treesync

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDiffYAML(t *testing.T) {
	Convey("DiffYAML", t, func() {
		Convey("reports no diff for identical documents", func() {
			doc := []byte("score: 10\nname: alice\n")
			report, hasDiff, err := DiffYAML(doc, doc)
			So(err, ShouldBeNil)
			So(hasDiff, ShouldBeFalse)
			So(report, ShouldEqual, "")
		})

		Convey("reports a human-readable diff for a changed leaf", func() {
			from := []byte("score: 10\nname: alice\n")
			to := []byte("score: 20\nname: alice\n")
			report, hasDiff, err := DiffYAML(from, to)
			So(err, ShouldBeNil)
			So(hasDiff, ShouldBeTrue)
			So(strings.Contains(report, "score"), ShouldBeTrue)
		})
	})
}
