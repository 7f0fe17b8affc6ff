package treesync

// Patch is the wire form of one inbound field-level mutation (§6): a path
// literal and the value it carries. For a structural opcode path (one
// whose terminal segment is add/insert/remove/replace/move/clear), Value
// carries an OpPayload-shaped blob instead of a plain scalar.
type Patch struct {
	Path  string
	Value Value
}

// Snapshot is the wire form of a full-tree transfer (§6): a type tag the
// receiver checks against its own root before applying, and the encoded
// root state.
type Snapshot struct {
	TypeTag   string
	RootState Value
}

// SnapshotRequestReason distinguishes why a peer is asking for a full
// snapshot rather than continuing to apply incremental patches.
type SnapshotRequestReason int

const (
	ReasonJoining SnapshotRequestReason = iota
	ReasonResync
)

// SnapshotRequest is sent by a joining or desynced peer to ask its
// authority for a fresh Snapshot (§6).
type SnapshotRequest struct {
	Reason SnapshotRequestReason
}

// OpPayload carries a structural opcode's arguments (§4.E/§4.F). Which
// fields are populated depends on the opcode:
//
//	add:     Item
//	insert:  Index, Item
//	remove:  Index (list) or Key (map)
//	replace: Index, Item (list) or Key, Item (map)
//	move:    From, To
//	clear:   (none; Value carries NullValue() instead of an OpPayload)
type OpPayload struct {
	Index *uint32
	From  *uint32
	To    *uint32
	Key   string
	Item  Value
}

// OpValue wraps p as a wire Value for a structural-opcode patch.
func OpValue(p OpPayload) Value {
	return Value{Kind: KindBlob, Blob: p}
}

// decodeOp extracts the OpPayload carried by v, if any.
func decodeOp(v Value) (OpPayload, bool) {
	if v.Kind != KindBlob {
		return OpPayload{}, false
	}
	p, ok := v.Blob.(OpPayload)
	return p, ok
}

func u32(v uint32) *uint32 { return &v }
