package treesync

import "github.com/wayneeseguin/treesync/internal/listutil"

// listElem is one slot of a TrackedList. idx is a pointer so that a
// re-tag scan after insert/remove/move can update it in place without
// tearing down and rebuilding the element's bubble subscription (§5:
// "index tags are recomputed by scanning the affected range — never
// cached off-index").
type listElem[T Component] struct {
	item   T
	idx    *int
	unwire func()
}

// TrackedList is a tracked, ordered, index-addressed collection (§4.E).
// Elements are themselves Components — a scalar element is a *Cell[V], a
// nested composite element is a *SyncNode or another collection — so
// routing and bubbling recurse through list elements exactly as they do
// through a node's declared members.
//
// codec materializes one wire Value into a whole element and back; for a
// scalar list this wraps the element type's own Codec, and for a list of
// composite elements it wraps whatever (de)serialization the application
// layer uses for that composite (see codec/jsoncodec). Decode(NullValue())
// must construct a blank element, used when growing during snapshot
// reconciliation.
type TrackedList[T Component] struct {
	codec Codec[T]
	items []*listElem[T]
	bus   changeBus
}

// NewTrackedList constructs an empty list using codec to materialize
// elements to and from the wire.
func NewTrackedList[T Component](codec Codec[T]) *TrackedList[T] {
	return &TrackedList[T]{codec: codec}
}

// Len returns the number of elements.
func (l *TrackedList[T]) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *TrackedList[T]) At(i int) T { return l.items[i].item }

func (l *TrackedList[T]) wire(e *listElem[T]) {
	idx := e.idx
	e.unwire = e.item.bubbleSubscribe(func(fc FieldChange) {
		l.bus.Emit(FieldChange{Path: Prepend(IndexSeg(uint32(*idx)), fc.Path), Old: fc.Old, New: fc.New})
	})
}

func (l *TrackedList[T]) retag(from int) {
	for i := from; i < len(l.items); i++ {
		*l.items[i].idx = i
	}
}

// Add appends item and bubbles a local "add" change.
func (l *TrackedList[T]) Add(item T) {
	l.silentAdd(item)
	l.bus.Emit(FieldChange{Path: Path{OpSeg("add")}, New: OpValue(OpPayload{Item: l.codec.Encode(item)})})
}

func (l *TrackedList[T]) silentAdd(item T) {
	idx := len(l.items)
	e := &listElem[T]{item: item, idx: &idx}
	l.wire(e)
	l.items = append(l.items, e)
}

// Insert places item at index i, shifting subsequent elements right, and
// bubbles a local "insert" change.
func (l *TrackedList[T]) Insert(i int, item T) error {
	if err := l.silentInsert(i, item); err != nil {
		return err
	}
	l.bus.Emit(FieldChange{Path: Path{OpSeg("insert")}, New: OpValue(OpPayload{Index: u32(uint32(i)), Item: l.codec.Encode(item)})})
	return nil
}

func (l *TrackedList[T]) silentInsert(i int, item T) error {
	if i < 0 || i > len(l.items) {
		return &PathRouteError{At: Path{OpSeg("insert")}, Reason: ReasonIndexOutOfRange}
	}
	idx := i
	e := &listElem[T]{item: item, idx: &idx}
	l.wire(e)
	l.items = listutil.InsertAt(l.items, i, e)
	l.retag(i + 1)
	return nil
}

// RemoveAt removes the element at index i and bubbles a local "remove"
// change. Removing a nonexistent index is a silent no-op (§7: removal is
// idempotent), not an error.
func (l *TrackedList[T]) RemoveAt(i int) {
	if l.silentRemoveAt(i) {
		l.bus.Emit(FieldChange{Path: Path{OpSeg("remove")}, New: OpValue(OpPayload{Index: u32(uint32(i))})})
	}
}

func (l *TrackedList[T]) silentRemoveAt(i int) (removed bool) {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i].unwire()
	l.items = listutil.RemoveAt(l.items, i)
	l.retag(i)
	return true
}

// Replace swaps the element at index i for item and bubbles a local
// "replace" change.
func (l *TrackedList[T]) Replace(i int, item T) error {
	if i < 0 || i >= len(l.items) {
		return &PathRouteError{At: Path{OpSeg("replace")}, Reason: ReasonIndexOutOfRange}
	}
	old := l.codec.Encode(l.items[i].item)
	if err := l.silentReplace(i, item); err != nil {
		return err
	}
	l.bus.Emit(FieldChange{
		Path: Path{OpSeg("replace")},
		Old:  old,
		New:  OpValue(OpPayload{Index: u32(uint32(i)), Item: l.codec.Encode(item)}),
	})
	return nil
}

func (l *TrackedList[T]) silentReplace(i int, item T) error {
	if i < 0 || i >= len(l.items) {
		return &PathRouteError{At: Path{OpSeg("replace")}, Reason: ReasonIndexOutOfRange}
	}
	l.items[i].unwire()
	idx := i
	e := &listElem[T]{item: item, idx: &idx}
	l.wire(e)
	l.items[i] = e
	return nil
}

// Move relocates the element at from to index to and bubbles a local
// "move" change.
func (l *TrackedList[T]) Move(from, to int) error {
	if err := l.silentMove(from, to); err != nil {
		return err
	}
	l.bus.Emit(FieldChange{Path: Path{OpSeg("move")}, New: OpValue(OpPayload{From: u32(uint32(from)), To: u32(uint32(to))})})
	return nil
}

func (l *TrackedList[T]) silentMove(from, to int) error {
	if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) {
		return &PathRouteError{At: Path{OpSeg("move")}, Reason: ReasonIndexOutOfRange}
	}
	e := l.items[from]
	l.items = listutil.RemoveAt(l.items, from)
	l.items = listutil.InsertAt(l.items, to, e)

	lo, _ := listutil.MoveRange(from, to)
	l.retag(lo)
	return nil
}

// Clear removes every element and bubbles a local "clear" change.
func (l *TrackedList[T]) Clear() {
	l.silentClear()
	l.bus.Emit(FieldChange{Path: Path{OpSeg("clear")}, New: NullValue()})
}

func (l *TrackedList[T]) silentClear() {
	for _, e := range l.items {
		e.unwire()
	}
	l.items = nil
}

// bubbleSubscribe satisfies Component.
func (l *TrackedList[T]) bubbleSubscribe(h ChangeHandler) (unsubscribe func()) {
	return l.bus.Subscribe(h)
}

// routeApplyPatch satisfies Component: the head segment must be an Index
// (continue routing into that element) or a reserved opcode segment
// (apply the structural op carried in value, which must then be
// terminal).
func (l *TrackedList[T]) routeApplyPatch(rest Path, value Value) error {
	seg, tail, ok := SplitHead(rest)
	if !ok {
		return &PathRouteError{At: rest, Reason: ReasonEmptyPathToNode, Detail: "list needs an index or opcode segment"}
	}
	switch seg.Kind {
	case KindIndex:
		i := int(seg.Index)
		if i < 0 || i >= len(l.items) {
			return &PathRouteError{At: rest, Reason: ReasonIndexOutOfRange}
		}
		return l.items[i].item.routeApplyPatch(tail, value)
	case KindOp:
		if len(tail) != 0 {
			return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "opcode segment must be terminal"}
		}
		return l.applyOp(seg.Name, value)
	default:
		return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "list expects an index or opcode segment"}
	}
}

func (l *TrackedList[T]) applyOp(name string, value Value) error {
	switch name {
	case "add":
		p, ok := decodeOp(value)
		if !ok {
			return &TypeMismatchError{Wanted: "add payload", Got: value.Kind}
		}
		item, err := l.codec.Decode(p.Item)
		if err != nil {
			return &TypeMismatchError{Wanted: "list item", Got: p.Item.Kind}
		}
		l.silentAdd(item)
		return nil
	case "insert":
		p, ok := decodeOp(value)
		if !ok || p.Index == nil {
			return &TypeMismatchError{Wanted: "insert payload", Got: value.Kind}
		}
		item, err := l.codec.Decode(p.Item)
		if err != nil {
			return &TypeMismatchError{Wanted: "list item", Got: p.Item.Kind}
		}
		return l.silentInsert(int(*p.Index), item)
	case "remove":
		p, ok := decodeOp(value)
		if !ok || p.Index == nil {
			return &TypeMismatchError{Wanted: "remove payload", Got: value.Kind}
		}
		l.silentRemoveAt(int(*p.Index))
		return nil
	case "replace":
		p, ok := decodeOp(value)
		if !ok || p.Index == nil {
			return &TypeMismatchError{Wanted: "replace payload", Got: value.Kind}
		}
		item, err := l.codec.Decode(p.Item)
		if err != nil {
			return &TypeMismatchError{Wanted: "list item", Got: p.Item.Kind}
		}
		return l.silentReplace(int(*p.Index), item)
	case "move":
		p, ok := decodeOp(value)
		if !ok || p.From == nil || p.To == nil {
			return &TypeMismatchError{Wanted: "move payload", Got: value.Kind}
		}
		return l.silentMove(int(*p.From), int(*p.To))
	case "clear":
		l.silentClear()
		return nil
	default:
		return &PathRouteError{At: Path{OpSeg(name)}, Reason: ReasonUnknownOp, Detail: name}
	}
}

// listLike lets snapshotFrom reach into the source list's elements without
// knowing its element type T.
type listLike interface {
	snapshotItems() []Component
}

func (l *TrackedList[T]) snapshotItems() []Component {
	out := make([]Component, len(l.items))
	for i, e := range l.items {
		out[i] = e.item
	}
	return out
}

// snapshotFrom satisfies Component: resizes to match source's length,
// truncating or growing from the tail, then reconciles every surviving
// element in place by delegating to its own snapshotFrom.
func (l *TrackedList[T]) snapshotFrom(source Component) error {
	src, ok := source.(listLike)
	if !ok {
		return &SnapshotTypeMismatchError{Want: "list", Got: "non-list"}
	}
	srcItems := src.snapshotItems()

	var errs SnapshotErrors
	for len(l.items) > len(srcItems) {
		last := len(l.items) - 1
		l.items[last].unwire()
		l.items = l.items[:last]
	}
	for i := 0; i < len(l.items); i++ {
		if err := l.items[i].item.snapshotFrom(srcItems[i]); err != nil {
			errs.add(err)
		}
	}
	for i := len(l.items); i < len(srcItems); i++ {
		blank, err := l.codec.Decode(NullValue())
		if err != nil {
			errs.add(err)
			continue
		}
		if err := blank.snapshotFrom(srcItems[i]); err != nil {
			errs.add(err)
		}
		l.silentAdd(blank)
	}
	return errs.ErrorOrNil()
}
