package treesync

// ChildKind is the closed set of variants a declared member of a
// TrackedNode can be (§9: "Dynamic polymorphism over 'trackable' is a
// closed set of variants: Node | List | Map | Cell"). Route and bubble are
// total functions over this set.
type ChildKind int

const (
	ChildCell ChildKind = iota
	ChildNode
	ChildList
	ChildMap
)

// Component is implemented by every trackable kind: *Cell[T], *TrackedNode
// (and anything embedding it), *TrackedList[T], and *TrackedMap[K,V]. It is
// the type-erased surface the declared-children table and collection
// element slots route and bubble through, replacing the reflection the
// source language used to discover members (§9).
type Component interface {
	// bubbleSubscribe subscribes to this component's own (unprefixed)
	// outgoing FieldChange stream.
	bubbleSubscribe(ChangeHandler) (unsubscribe func())

	// routeApplyPatch silently applies value to the leaf addressed by
	// rest, recursing through intermediate nodes/collections. rest is
	// empty when the component itself is the terminal leaf.
	routeApplyPatch(rest Path, value Value) error

	// snapshotFrom silently reconciles this component to match source,
	// which must be the structurally identical component from the
	// source tree (same concrete type, guaranteed by a prior type_tag
	// match at the root).
	snapshotFrom(source Component) error
}
