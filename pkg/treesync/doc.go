/*
Package treesync implements the change-tracking and patch-application core
of a state-replication library for multi-participant games: one
authoritative peer holds a mutable world tree, other peers keep shadow
copies, and mutations are shipped as fine-grained patches addressed by
path.

# Overview

A tree of TrackedNodes, TrackedLists, TrackedMaps, and Cells models the
game's shared state. Local mutations on a Cell bubble up through parent
nodes as FieldChange records, each carrying the path from the root to the
leaf that changed:

	counter := treesync.NewCell(0, treesync.DefaultEqual[int](), jsoncodec.Int())
	root.Declare("Root", "counter", treesync.ChildCell, counter)
	counter.Set(5) // root observers see FieldChange{Path: counter, New: IntValue(5)}

A SyncNode accepts the same path vocabulary from the wire side and applies
it silently — without re-emitting the change it just applied:

	err := root.ApplyPatch(path, value) // no outbound FieldChange

Byte-level transport, serialization, and rendering into a scene graph are
all out of scope; this package consumes and produces the Patch, Snapshot,
and FieldChange records defined here, and leaves moving them across the
wire to a Transport collaborator (see package transport/nats for a
reference implementation).

# Dispatcher

Dispatcher owns the root SyncNode and drives the Detached -> Joining ->
Synced state machine, talking to a pluggable Transport. It can run in
either Authoritative or Router authority mode; both modes share the same
ApplyPatch/ApplySnapshot/bubble contracts.

# Errors

Routing, type, and snapshot errors on inbound patches are reported to the
caller and drop the offending patch; they never corrupt state and never
emit an outbound event. See PathRouteError, TypeMismatchError,
SnapshotTypeMismatchError, and TransportBackpressureError.
*/
package treesync
