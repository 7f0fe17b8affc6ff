package treesync

// SyncNode is a TrackedNode with a second, parallel interface that accepts
// remote patches and full snapshots (§4.D). Declared members are the same
// table a plain TrackedNode uses; ApplyPatch and ApplySnapshot route and
// reconcile through it silently, never re-emitting the FieldChange that a
// local mutation would have produced.
//
// decodeRoot and encodeRoot are the application's whole-tree codec: the
// declared-children table only knows how to route and bubble, not how to
// materialize a peer tree from wire bytes, so the caller supplies that
// (see NewWorldState in cmd/treesyncd/worldstate.go for an example).
type SyncNode struct {
	*TrackedNode

	typeTag    string
	decodeRoot func(Value) (Component, error)
	encodeRoot func() Value

	onPatched         []func()
	onSnapshotApplied []func()
}

// NewSyncNode constructs a SyncNode with no declared members yet.
func NewSyncNode(typeTag string, decodeRoot func(Value) (Component, error), encodeRoot func() Value) *SyncNode {
	return &SyncNode{
		TrackedNode: NewTrackedNode(),
		typeTag:     typeTag,
		decodeRoot:  decodeRoot,
		encodeRoot:  encodeRoot,
	}
}

// TypeTag identifies the concrete tree shape this SyncNode implements,
// checked against an inbound Snapshot before it is applied.
func (s *SyncNode) TypeTag() string { return s.typeTag }

// ApplyPatch parses literal and silently routes value to the leaf it
// addresses. A routing or type failure is returned and drops the patch
// without touching state or emitting anything; success fires a single
// patched signal at the root regardless of how deep the leaf was (§4.D,
// §7).
func (s *SyncNode) ApplyPatch(literal string, value Value) error {
	path, err := Parse(literal)
	if err != nil {
		return err
	}
	if err := s.routeApplyPatch(path, value); err != nil {
		return err
	}
	s.notifyPatched()
	return nil
}

// ApplySnapshot reconciles the whole tree from snap. The type tag is
// checked first and rejected outright on mismatch; once reconciliation
// starts, a failure on one leaf does not roll back leaves already applied
// — every error encountered is aggregated and returned, and the snapshot-
// applied signal only fires once the whole traversal is error-free.
func (s *SyncNode) ApplySnapshot(snap Snapshot) error {
	if snap.TypeTag != s.typeTag {
		return &SnapshotTypeMismatchError{Want: s.typeTag, Got: snap.TypeTag}
	}
	source, err := s.decodeRoot(snap.RootState)
	if err != nil {
		return err
	}
	if err := s.snapshotFrom(source); err != nil {
		return err
	}
	s.notifySnapshotApplied()
	return nil
}

// Encode renders the current tree as a wire Snapshot, for an authority to
// send to a joining or resyncing peer.
func (s *SyncNode) Encode() Snapshot {
	return Snapshot{TypeTag: s.typeTag, RootState: s.encodeRoot()}
}

// OnPatched registers an observer fired once per successful ApplyPatch.
func (s *SyncNode) OnPatched(fn func()) {
	s.onPatched = append(s.onPatched, fn)
}

// OnSnapshotApplied registers an observer fired once per successful
// ApplySnapshot.
func (s *SyncNode) OnSnapshotApplied(fn func()) {
	s.onSnapshotApplied = append(s.onSnapshotApplied, fn)
}

func (s *SyncNode) notifyPatched() {
	for _, fn := range s.onPatched {
		fn()
	}
}

func (s *SyncNode) notifySnapshotApplied() {
	for _, fn := range s.onSnapshotApplied {
		fn()
	}
}
