package treesync

import "context"

// Transport is the out-of-core collaborator that moves Patch, Snapshot,
// and SnapshotRequest records across the wire (§1: byte-level transport
// and serialization are explicitly out of this package's scope). See
// package transport/nats for a reference implementation.
type Transport interface {
	// SendPatch enqueues an outbound patch. It returns
	// *TransportBackpressureError if the outbound queue is full; the core
	// does not retry on backpressure, the caller decides.
	SendPatch(ctx context.Context, p Patch) error

	// SendSnapshot enqueues an outbound full-tree snapshot, typically sent
	// by an authority in response to a SnapshotRequest.
	SendSnapshot(ctx context.Context, s Snapshot) error

	// SendSnapshotRequest enqueues an outbound request for a fresh
	// snapshot, sent by a joining or desynced peer.
	SendSnapshotRequest(ctx context.Context, r SnapshotRequest) error

	// Patches returns a channel of inbound patches from the remote peer.
	// The channel is closed when the transport is closed.
	Patches() <-chan Patch

	// Snapshots returns a channel of inbound snapshots.
	Snapshots() <-chan Snapshot

	// SnapshotRequests returns a channel of inbound snapshot requests,
	// relevant only to an authority.
	SnapshotRequests() <-chan SnapshotRequest

	// Close releases the transport's resources.
	Close() error
}
