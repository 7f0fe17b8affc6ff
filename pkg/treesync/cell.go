package treesync

// EqualFunc compares two values of type T for the purposes of Cell's
// no-op-on-equal rule (§4.B).
type EqualFunc[T any] func(a, b T) bool

// DefaultEqual returns the == comparator for any comparable T.
func DefaultEqual[T comparable]() EqualFunc[T] {
	return func(a, b T) bool { return a == b }
}

// Epsilon returns a float64 comparator that treats values within eps of
// each other as equal — the per-deployment choice SPEC_FULL.md resolves
// for floating-point cells (§9 Open Question).
func Epsilon(eps float64) EqualFunc[float64] {
	return func(a, b float64) bool {
		d := a - b
		if d < 0 {
			d = -d
		}
		return d <= eps
	}
}

// Codec converts a Cell[T]'s native value to and from the wire Value, and
// is supplied by the caller (it is the one place a Cell touches the
// serializer collaborator's concerns, per §3's "Value is an opaque tagged
// value").
type Codec[T any] struct {
	Encode func(T) Value
	Decode func(Value) (T, error)
}

// Cell is one logical mutable slot (§4.B). Cell[T] always holds a defined
// value; TrackOutgoing and AcceptIncoming gate whether Set bubbles a
// FieldChange and whether ApplyPatch is allowed to take effect.
type Cell[T any] struct {
	value          T
	equal          EqualFunc[T]
	codec          Codec[T]
	TrackOutgoing  bool
	AcceptIncoming bool

	bus           changeBus
	valueChanged  []func(T)
	patched       []func(T)
}

// NewCell constructs a Cell with its default value, outgoing tracking and
// incoming acceptance both enabled.
func NewCell[T any](initial T, equal EqualFunc[T], codec Codec[T]) *Cell[T] {
	return &Cell[T]{
		value:          initial,
		equal:          equal,
		codec:          codec,
		TrackOutgoing:  true,
		AcceptIncoming: true,
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T { return c.value }

// Set stores v if it differs from the current value under the cell's
// comparator. A changed value always fires OnValueChanged; it additionally
// bubbles a FieldChange on the cell's own change stream (path = []) if
// TrackOutgoing is set (§4.B).
func (c *Cell[T]) Set(v T) {
	if c.equal(c.value, v) {
		return
	}
	old := c.value
	c.value = v
	c.notifyValueChanged(v)
	if c.TrackOutgoing {
		c.bus.Emit(FieldChange{
			Path: Path{},
			Old:  c.codec.Encode(old),
			New:  c.codec.Encode(v),
		})
	}
}

// ApplyPatch stores v if AcceptIncoming is set and v differs from the
// current value. It fires OnPatched and OnValueChanged, and — this is the
// echo-suppression invariant (§4.D) — never a FieldChange.
func (c *Cell[T]) ApplyPatch(raw Value) error {
	if !c.AcceptIncoming {
		return nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return &TypeMismatchError{Wanted: "cell value", Got: raw.Kind}
	}
	if c.equal(c.value, v) {
		return nil
	}
	c.value = v
	c.notifyPatched(v)
	c.notifyValueChanged(v)
	return nil
}

// Snapshot sets the value from source's wire Value — used by
// SyncNode.ApplySnapshot's leaf step (§4.D item 3). It delegates to
// ApplyPatch, so the value is decoded through the cell's codec and
// AcceptIncoming applies: silent, no FieldChange.
func (c *Cell[T]) Snapshot(raw Value) error {
	return c.ApplyPatch(raw)
}

// Encode renders the current value as a wire Value, for outbound snapshot
// traversal and for building the initial "add" FieldChange of a freshly
// wired list/map element.
func (c *Cell[T]) Encode() Value { return c.codec.Encode(c.value) }

// Subscribe registers h on the cell's own (unprefixed) change stream. Used
// only by the cell's parent node when wiring bubbling — library users
// normally go through OnValueChanged instead.
func (c *Cell[T]) Subscribe(h ChangeHandler) (unsubscribe func()) {
	return c.bus.Subscribe(h)
}

// OnValueChanged registers a local observer fired on every accepted Set or
// ApplyPatch, regardless of origin.
func (c *Cell[T]) OnValueChanged(fn func(T)) {
	c.valueChanged = append(c.valueChanged, fn)
}

// OnPatched registers a local observer fired only when a remote patch
// (ApplyPatch/Snapshot) actually changed the value.
func (c *Cell[T]) OnPatched(fn func(T)) {
	c.patched = append(c.patched, fn)
}

func (c *Cell[T]) notifyValueChanged(v T) {
	for _, fn := range c.valueChanged {
		fn(v)
	}
}

func (c *Cell[T]) notifyPatched(v T) {
	for _, fn := range c.patched {
		fn(v)
	}
}

// bubbleSubscribe satisfies Component for a parent node/collection wiring
// this cell in.
func (c *Cell[T]) bubbleSubscribe(h ChangeHandler) (unsubscribe func()) {
	return c.Subscribe(h)
}

// routeApplyPatch satisfies Component. A cell is always a terminal leaf:
// rest must be empty, since there is nowhere further to route.
func (c *Cell[T]) routeApplyPatch(rest Path, value Value) error {
	if len(rest) != 0 {
		return &PathRouteError{At: rest, Reason: ReasonWrongKind, Detail: "cell is a terminal leaf"}
	}
	return c.ApplyPatch(value)
}

// snapshotFrom satisfies Component. source must be the structurally
// identical *Cell[T] from the source tree.
func (c *Cell[T]) snapshotFrom(source Component) error {
	src, ok := source.(*Cell[T])
	if !ok {
		return &TypeMismatchError{Wanted: "matching cell type"}
	}
	return c.Snapshot(src.Encode())
}
