package treesync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// applyListOp clamps op's indices against l's current length, since
// GenerateListOps fuzzes raw integers with no notion of "valid index for
// the list as it stands after op i-1" (see its doc comment).
func applyListOp(l *TrackedList[*Cell[int]], op ListOp) {
	n := l.Len()
	switch op.Kind {
	case "add":
		l.Add(newIntCell())
	case "insert":
		if n == 0 {
			l.Add(newIntCell())
			return
		}
		l.Insert(op.A%(n+1), newIntCell())
	case "remove":
		if n == 0 {
			return
		}
		l.RemoveAt(op.A % n)
	case "move":
		if n == 0 {
			return
		}
		l.Move(op.A%n, op.B%n)
	}
}

// TestTrackedListRetagPropertyHolds drives randomized sequences of
// add/insert/remove/move operations through a TrackedList and asserts,
// after every single step, that each element's retag pointer matches its
// actual slice position (§8 invariant 5).
func TestTrackedListRetagPropertyHolds(t *testing.T) {
	Convey("TrackedList keeps every element's index tag in sync with its position", t, func() {
		for seed := int64(0); seed < 20; seed++ {
			l := NewTrackedList(cellCodec())
			ops := GenerateListOps(seed, 50, 8)

			for i, op := range ops {
				applyListOp(l, op)
				So(AssertRetagged(l), ShouldBeNil)
				_ = i
			}
		}
	})
}

// TestTrackedListRetagPropertyHoldsUnderSubscriptionChurn re-runs the same
// property on one longer sequence with a bubbleSubscribe listener attached
// throughout, while add/insert/remove wire and unwire element
// subscriptions. It checks AssertRetagged after every step; the bubbled
// FieldChanges it collects are not inspected.
func TestTrackedListRetagPropertyHoldsUnderSubscriptionChurn(t *testing.T) {
	Convey("TrackedList retagging survives with an active subscriber", t, func() {
		l := NewTrackedList(cellCodec())
		var fcs []FieldChange
		l.bubbleSubscribe(func(fc FieldChange) { fcs = append(fcs, fc) })

		ops := GenerateListOps(42, 100, 12)
		for _, op := range ops {
			applyListOp(l, op)
			So(AssertRetagged(l), ShouldBeNil)
		}
		_ = fcs
	})
}
