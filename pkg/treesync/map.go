package treesync

// mapElem is one slot of a TrackedMap.
type mapElem[T Component] struct {
	item   T
	unwire func()
}

// TrackedMap is a tracked, key-addressed collection (§4.F). Keys are
// strings; values are Components, exactly as with TrackedList, so a map
// value may be a scalar cell or a nested composite.
type TrackedMap[T Component] struct {
	codec Codec[T]
	items map[string]*mapElem[T]
	order []string
	bus   changeBus
}

// NewTrackedMap constructs an empty map using codec to materialize values
// to and from the wire.
func NewTrackedMap[T Component](codec Codec[T]) *TrackedMap[T] {
	return &TrackedMap[T]{codec: codec, items: map[string]*mapElem[T]{}}
}

// Len returns the number of entries.
func (m *TrackedMap[T]) Len() int { return len(m.items) }

// Get returns the value at key, if present.
func (m *TrackedMap[T]) Get(key string) (T, bool) {
	e, ok := m.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.item, true
}

// Keys returns declared keys in insertion order.
func (m *TrackedMap[T]) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *TrackedMap[T]) wire(key string, e *mapElem[T]) {
	e.unwire = e.item.bubbleSubscribe(func(fc FieldChange) {
		m.bus.Emit(FieldChange{Path: Prepend(KeySeg(key), fc.Path), Old: fc.Old, New: fc.New})
	})
}

// Set inserts or overwrites the value at key and bubbles a local "replace"
// change (a map has no distinct insert/add opcode: setting an absent key
// and overwriting a present one are the same operation, per §4.F).
func (m *TrackedMap[T]) Set(key string, value T) {
	old, had := m.silentSet(key, value)
	payload := OpPayload{Key: key, Item: m.codec.Encode(value)}
	fc := FieldChange{Path: Path{OpSeg("replace")}, New: OpValue(payload)}
	if had {
		fc.Old = m.codec.Encode(old)
	}
	m.bus.Emit(fc)
}

func (m *TrackedMap[T]) silentSet(key string, value T) (old T, had bool) {
	if e, ok := m.items[key]; ok {
		old, had = e.item, true
		e.unwire()
	} else {
		m.order = append(m.order, key)
	}
	e := &mapElem[T]{item: value}
	m.wire(key, e)
	m.items[key] = e
	return old, had
}

// Remove deletes key and bubbles a local "remove" change. Removing an
// absent key is a silent no-op (§7: removal is idempotent).
func (m *TrackedMap[T]) Remove(key string) {
	if m.silentRemove(key) {
		m.bus.Emit(FieldChange{Path: Path{OpSeg("remove")}, New: OpValue(OpPayload{Key: key})})
	}
}

func (m *TrackedMap[T]) silentRemove(key string) (removed bool) {
	e, ok := m.items[key]
	if !ok {
		return false
	}
	e.unwire()
	delete(m.items, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every entry and bubbles a local "clear" change.
func (m *TrackedMap[T]) Clear() {
	m.silentClear()
	m.bus.Emit(FieldChange{Path: Path{OpSeg("clear")}, New: NullValue()})
}

func (m *TrackedMap[T]) silentClear() {
	for _, e := range m.items {
		e.unwire()
	}
	m.items = map[string]*mapElem[T]{}
	m.order = nil
}

// bubbleSubscribe satisfies Component.
func (m *TrackedMap[T]) bubbleSubscribe(h ChangeHandler) (unsubscribe func()) {
	return m.bus.Subscribe(h)
}

// routeApplyPatch satisfies Component: the head segment must be a Key
// (continue routing into that entry) or a reserved opcode segment (apply
// the structural op carried in value, which must then be terminal).
func (m *TrackedMap[T]) routeApplyPatch(rest Path, value Value) error {
	seg, tail, ok := SplitHead(rest)
	if !ok {
		return &PathRouteError{At: rest, Reason: ReasonEmptyPathToNode, Detail: "map needs a key or opcode segment"}
	}
	switch seg.Kind {
	case KindKey:
		e, ok := m.items[seg.Key]
		if !ok {
			return &PathRouteError{At: rest, Reason: ReasonUnknownKey, Detail: seg.Key}
		}
		return e.item.routeApplyPatch(tail, value)
	case KindOp:
		if len(tail) != 0 {
			return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "opcode segment must be terminal"}
		}
		return m.applyOp(seg.Name, value)
	default:
		return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "map expects a key or opcode segment"}
	}
}

func (m *TrackedMap[T]) applyOp(name string, value Value) error {
	switch name {
	case "add", "replace":
		p, ok := decodeOp(value)
		if !ok {
			return &TypeMismatchError{Wanted: name + " payload", Got: value.Kind}
		}
		item, err := m.codec.Decode(p.Item)
		if err != nil {
			return &TypeMismatchError{Wanted: "map value", Got: p.Item.Kind}
		}
		m.silentSet(p.Key, item)
		return nil
	case "remove":
		p, ok := decodeOp(value)
		if !ok {
			return &TypeMismatchError{Wanted: "remove payload", Got: value.Kind}
		}
		m.silentRemove(p.Key)
		return nil
	case "clear":
		m.silentClear()
		return nil
	default:
		return &PathRouteError{At: Path{OpSeg(name)}, Reason: ReasonUnknownOp, Detail: name}
	}
}

// mapLike lets snapshotFrom reach into the source map's entries without
// knowing its value type T.
type mapLike interface {
	snapshotEntries() map[string]Component
}

func (m *TrackedMap[T]) snapshotEntries() map[string]Component {
	out := make(map[string]Component, len(m.items))
	for k, e := range m.items {
		out[k] = e.item
	}
	return out
}

// snapshotFrom satisfies Component: removes keys absent from source,
// reconciles keys present in both in place, and adds keys present only in
// source.
func (m *TrackedMap[T]) snapshotFrom(source Component) error {
	src, ok := source.(mapLike)
	if !ok {
		return &SnapshotTypeMismatchError{Want: "map", Got: "non-map"}
	}
	srcEntries := src.snapshotEntries()

	var errs SnapshotErrors
	for _, key := range m.Keys() {
		if _, ok := srcEntries[key]; !ok {
			m.silentRemove(key)
		}
	}
	for key, srcItem := range srcEntries {
		if e, ok := m.items[key]; ok {
			if err := e.item.snapshotFrom(srcItem); err != nil {
				errs.add(err)
			}
			continue
		}
		blank, err := m.codec.Decode(NullValue())
		if err != nil {
			errs.add(err)
			continue
		}
		if err := blank.snapshotFrom(srcItem); err != nil {
			errs.add(err)
		}
		m.silentSet(key, blank)
	}
	return errs.ErrorOrNil()
}
