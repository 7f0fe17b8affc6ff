package main

import (
	"github.com/wayneeseguin/treesync/codec/jsoncodec"
	"github.com/wayneeseguin/treesync/pkg/treesync"
)

// WorldState is the demo binary's sync tree: a tick counter the
// authority advances and a status line either side can set. It stands
// in for a generated/hand-written game-state root, with a type tag and
// whole-tree codec a real deployment would supply via codegen.
type WorldState struct {
	*treesync.SyncNode
	Tick   *treesync.Cell[int]
	Status *treesync.Cell[string]
}

// worldSnapshotBlob carries both leaves in one wire Value, since the
// root-level codec only gets a single Value to round-trip through.
type worldSnapshotBlob struct {
	Tick   treesync.Value
	Status treesync.Value
}

// NewWorldState constructs an empty WorldState with its members
// declared and its whole-tree codec wired, ready to hand to
// treesync.NewDispatcher.
func NewWorldState() *WorldState {
	w := &WorldState{
		Tick:   treesync.NewCell(0, treesync.DefaultEqual[int](), jsoncodec.Int()),
		Status: treesync.NewCell("", treesync.DefaultEqual[string](), jsoncodec.String()),
	}

	decode := func(v treesync.Value) (treesync.Component, error) {
		other := NewWorldState()
		blob, ok := v.Blob.(worldSnapshotBlob)
		if !ok {
			return other, nil
		}
		if err := other.Tick.ApplyPatch(blob.Tick); err != nil {
			return nil, err
		}
		if err := other.Status.ApplyPatch(blob.Status); err != nil {
			return nil, err
		}
		return other, nil
	}
	encode := func() treesync.Value {
		return treesync.BlobValue(worldSnapshotBlob{Tick: w.Tick.Encode(), Status: w.Status.Encode()})
	}

	w.SyncNode = treesync.NewSyncNode("WorldState", decode, encode)
	if err := w.Declare("WorldState", "tick", treesync.ChildCell, w.Tick); err != nil {
		panic(err)
	}
	if err := w.Declare("WorldState", "status", treesync.ChildCell, w.Status); err != nil {
		panic(err)
	}
	return w
}
