package treesync

import "strings"

// registeredMember is one slot in a TrackedNode's declared-children table.
type registeredMember struct {
	kind         ChildKind
	comp         Component
	unwireBubble func()
}

// TrackedNode is a tracked node per §4.C: a fixed, explicitly declared set
// of named members (cells, nested nodes, lists, or maps), each wired so
// that a FieldChange emitted anywhere below bubbles up through this node
// with the member's name segment prepended.
//
// Concrete domain types embed *TrackedNode and call Declare for each of
// their own fields during construction — this is the declarative
// replacement for the reflection-based member discovery the source
// language used (§9).
type TrackedNode struct {
	bus     changeBus
	members map[string]registeredMember
	order   []string
}

// NewTrackedNode constructs an empty node with no declared members.
func NewTrackedNode() *TrackedNode {
	return &TrackedNode{members: map[string]registeredMember{}}
}

// Declare registers a new member under name, wiring its bubble stream
// through this node. It returns a *ReservedCollisionError if name is a
// reserved opcode (add/insert/remove/replace/move/clear) — member names
// and opcodes share one namespace and must never collide, checked here at
// registration time rather than at routing time, so a misconfigured type
// fails immediately instead of silently shadowing an opcode later (§7).
// The same error is returned for a name starting with "_" and for a name
// that is already declared.
func (n *TrackedNode) Declare(owner, name string, kind ChildKind, c Component) error {
	if ReservedOps[name] {
		return &ReservedCollisionError{Owner: owner, Member: name}
	}
	if strings.HasPrefix(name, "_") {
		return &ReservedCollisionError{Owner: owner, Member: name}
	}
	if _, exists := n.members[name]; exists {
		return &ReservedCollisionError{Owner: owner, Member: name}
	}

	seg := NameSeg(name)
	unwire := c.bubbleSubscribe(func(fc FieldChange) {
		n.bus.Emit(FieldChange{Path: Prepend(seg, fc.Path), Old: fc.Old, New: fc.New})
	})
	n.members[name] = registeredMember{kind: kind, comp: c, unwireBubble: unwire}
	n.order = append(n.order, name)
	return nil
}

// Replace atomically rewires member name to a new Component: unsubscribe
// the old child first, then subscribe the new one, so that any event the
// old child emits after being detached is dropped rather than bubbled
// under a stale name (§4.C child-rewire discipline).
func (n *TrackedNode) Replace(name string, c Component) error {
	m, ok := n.members[name]
	if !ok {
		return &PathRouteError{At: Path{NameSeg(name)}, Reason: ReasonUnknownMember}
	}
	m.unwireBubble()

	seg := NameSeg(name)
	m.comp = c
	m.unwireBubble = c.bubbleSubscribe(func(fc FieldChange) {
		n.bus.Emit(FieldChange{Path: Prepend(seg, fc.Path), Old: fc.Old, New: fc.New})
	})
	n.members[name] = m
	return nil
}

// Member returns the Component registered under name, if any.
func (n *TrackedNode) Member(name string) (Component, bool) {
	m, ok := n.members[name]
	if !ok {
		return nil, false
	}
	return m.comp, true
}

// MemberNames returns declared member names in declaration order.
func (n *TrackedNode) MemberNames() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// bubbleSubscribe satisfies Component.
func (n *TrackedNode) bubbleSubscribe(h ChangeHandler) (unsubscribe func()) {
	return n.bus.Subscribe(h)
}

// routeApplyPatch satisfies Component: the head segment must be a Name
// segment matching a declared member; an empty rest routed to a node is
// always rejected (§4.D: "empty-path route to a node is rejected"), since
// a node itself is never a valid patch destination.
func (n *TrackedNode) routeApplyPatch(rest Path, value Value) error {
	seg, tail, ok := SplitHead(rest)
	if !ok {
		return &PathRouteError{At: rest, Reason: ReasonEmptyPathToNode, Detail: "path does not reach a leaf"}
	}
	if seg.Kind != KindName {
		return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "node expects a name segment"}
	}
	m, ok := n.members[seg.Name]
	if !ok {
		return &PathRouteError{At: rest, Reason: ReasonUnknownMember, Detail: seg.Name}
	}
	return m.comp.routeApplyPatch(tail, value)
}

// snapshotFrom satisfies Component, reconciling every declared member from
// the equivalent member on source. A failure on one member does not stop
// reconciliation of the rest (§4.D); all failures are aggregated and
// returned together.
func (n *TrackedNode) snapshotFrom(source Component) error {
	src, ok := source.(nodeLike)
	if !ok {
		return &SnapshotTypeMismatchError{Want: "node", Got: "non-node"}
	}

	var errs SnapshotErrors
	for _, name := range n.order {
		m := n.members[name]
		sm, ok := src.declaredMember(name)
		if !ok {
			errs.add(&PathRouteError{At: Path{NameSeg(name)}, Reason: ReasonUnknownMember, Detail: name})
			continue
		}
		if err := m.comp.snapshotFrom(sm); err != nil {
			errs.add(err)
		}
	}
	return errs.ErrorOrNil()
}

// nodeLike lets snapshotFrom reach into the source side's declared-members
// table regardless of which concrete domain type embeds *TrackedNode —
// embedding promotes this method automatically.
type nodeLike interface {
	declaredMember(name string) (Component, bool)
}

func (n *TrackedNode) declaredMember(name string) (Component, bool) {
	return n.Member(name)
}
