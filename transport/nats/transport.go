// Package nats is a reference treesync.Transport built on a core NATS
// pub/sub subject triple per tree instance (patches, snapshots, snapshot
// requests). It is a collaborator, not part of the core: pkg/treesync
// never imports it.
package nats

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-uuid"
	"github.com/nats-io/nats.go"

	"github.com/wayneeseguin/treesync/internal/config"
	"github.com/wayneeseguin/treesync/pkg/treesync"
)

const dedupCacheSize = 4096

// Subjects groups the three NATS subjects a Transport publishes and
// subscribes on for one tree instance. Build one with SubjectsFor.
type Subjects struct {
	Patches          string
	Snapshots        string
	SnapshotRequests string
}

// SubjectsFor derives the conventional subject triple for a tree instance
// identified by treeID, e.g. "treesync.<id>.patch".
func SubjectsFor(treeID string) Subjects {
	return Subjects{
		Patches:          fmt.Sprintf("treesync.%s.patch", treeID),
		Snapshots:        fmt.Sprintf("treesync.%s.snapshot", treeID),
		SnapshotRequests: fmt.Sprintf("treesync.%s.snapshot_request", treeID),
	}
}

// Transport implements treesync.Transport over a *nats.Conn. Publishing
// side is synchronous (nats.Conn.Publish queues locally and returns
// immediately, so no boundedQueue is needed there); the receive side
// buffers into a fixed-capacity queue per record kind so a slow
// dispatcher cannot let an unbounded backlog of NATS deliveries pile up
// in memory (a delivery that finds its queue full is logged and dropped).
// Send* reports *treesync.TransportBackpressureError when Publish returns
// an error.
type Transport struct {
	conn     *nats.Conn
	subjects Subjects

	patchSub    *nats.Subscription
	snapshotSub *nats.Subscription
	requestSub  *nats.Subscription

	patchesOut   *treesync.BoundedQueue[treesync.Patch]
	snapshotsOut *treesync.BoundedQueue[treesync.Snapshot]
	requestsOut  *treesync.BoundedQueue[treesync.SnapshotRequest]

	seen *lru.Cache[string, struct{}]

	logger config.Logger
}

// Options configures New.
type Options struct {
	// InboundBuffer is the per-kind receive buffer capacity. Defaults to
	// 256 if zero.
	InboundBuffer int

	// Logger receives DEBUG logs for dropped/duplicate records and WARN
	// logs for decode (routing/type) errors. Defaults to
	// config.DefaultLogger if nil.
	Logger config.Logger
}

// New subscribes conn to the subject triple for treeID and returns a
// Transport ready to hand to treesync.NewDispatcher. Call Close to
// unsubscribe and release the connection's resources owned by this
// Transport (the *nats.Conn itself is the caller's to close).
func New(conn *nats.Conn, treeID string, opts Options) (*Transport, error) {
	if opts.InboundBuffer == 0 {
		opts.InboundBuffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = config.DefaultLogger{}
	}
	seen, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("nats: building dedup cache: %w", err)
	}

	t := &Transport{
		conn:         conn,
		subjects:     SubjectsFor(treeID),
		patchesOut:   treesync.NewBoundedQueue[treesync.Patch](opts.InboundBuffer),
		snapshotsOut: treesync.NewBoundedQueue[treesync.Snapshot](opts.InboundBuffer),
		requestsOut:  treesync.NewBoundedQueue[treesync.SnapshotRequest](opts.InboundBuffer),
		seen:         seen,
		logger:       opts.Logger,
	}

	t.patchSub, err = conn.Subscribe(t.subjects.Patches, t.onPatch)
	if err != nil {
		return nil, fmt.Errorf("nats: subscribing to %s: %w", t.subjects.Patches, err)
	}
	t.snapshotSub, err = conn.Subscribe(t.subjects.Snapshots, t.onSnapshot)
	if err != nil {
		t.patchSub.Unsubscribe()
		return nil, fmt.Errorf("nats: subscribing to %s: %w", t.subjects.Snapshots, err)
	}
	t.requestSub, err = conn.Subscribe(t.subjects.SnapshotRequests, t.onSnapshotRequest)
	if err != nil {
		t.patchSub.Unsubscribe()
		t.snapshotSub.Unsubscribe()
		return nil, fmt.Errorf("nats: subscribing to %s: %w", t.subjects.SnapshotRequests, err)
	}

	return t, nil
}

func (t *Transport) markSeen(id string) (fresh bool) {
	if id == "" {
		return true
	}
	if _, dup := t.seen.Get(id); dup {
		return false
	}
	t.seen.Add(id, struct{}{})
	return true
}

func (t *Transport) onPatch(msg *nats.Msg) {
	id, p, err := decodePatch(msg.Data)
	if err != nil {
		t.logger.Warnf("nats: dropping malformed patch on %s: %v", msg.Subject, err)
		return
	}
	if !t.markSeen(id) {
		t.logger.Debugf("nats: dropping duplicate patch at %s (id=%s)", p.Path, id)
		return
	}
	if !t.patchesOut.Push(p) {
		t.logger.Warnf("nats: dropping patch at %s, inbound queue full", p.Path)
		return
	}
	t.logger.Debugf("nats: received patch at %s", p.Path)
}

func (t *Transport) onSnapshot(msg *nats.Msg) {
	id, s, err := decodeSnapshot(msg.Data)
	if err != nil {
		t.logger.Warnf("nats: dropping malformed snapshot on %s: %v", msg.Subject, err)
		return
	}
	if !t.markSeen(id) {
		t.logger.Debugf("nats: dropping duplicate snapshot for type %s (id=%s)", s.TypeTag, id)
		return
	}
	if !t.snapshotsOut.Push(s) {
		t.logger.Warnf("nats: dropping snapshot for type %s, inbound queue full", s.TypeTag)
		return
	}
	t.logger.Debugf("nats: received snapshot for type %s", s.TypeTag)
}

func (t *Transport) onSnapshotRequest(msg *nats.Msg) {
	id, r, err := decodeSnapshotRequest(msg.Data)
	if err != nil {
		t.logger.Warnf("nats: dropping malformed snapshot request on %s: %v", msg.Subject, err)
		return
	}
	if !t.markSeen(id) {
		t.logger.Debugf("nats: dropping duplicate snapshot request (id=%s)", id)
		return
	}
	if !t.requestsOut.Push(r) {
		t.logger.Warnf("nats: dropping snapshot request, inbound queue full")
		return
	}
	t.logger.Debugf("nats: received snapshot request (reason=%d)", r.Reason)
}

func newMessageID() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return ""
	}
	return id
}

func (t *Transport) SendPatch(ctx context.Context, p treesync.Patch) error {
	data, err := encodePatch(newMessageID(), p)
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subjects.Patches, data); err != nil {
		path, _ := treesync.Parse(p.Path)
		t.logger.Warnf("nats: backpressure sending patch at %s: %v", path.Format(), err)
		return &treesync.TransportBackpressureError{Path: path}
	}
	return nil
}

func (t *Transport) SendSnapshot(ctx context.Context, s treesync.Snapshot) error {
	data, err := encodeSnapshot(newMessageID(), s)
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subjects.Snapshots, data); err != nil {
		t.logger.Warnf("nats: backpressure sending snapshot for type %s: %v", s.TypeTag, err)
		return &treesync.TransportBackpressureError{}
	}
	return nil
}

func (t *Transport) SendSnapshotRequest(ctx context.Context, r treesync.SnapshotRequest) error {
	data, err := encodeSnapshotRequest(newMessageID(), r)
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subjects.SnapshotRequests, data); err != nil {
		t.logger.Warnf("nats: backpressure sending snapshot request: %v", err)
		return &treesync.TransportBackpressureError{}
	}
	return nil
}

func (t *Transport) Patches() <-chan treesync.Patch                   { return t.patchesOut.Chan() }
func (t *Transport) Snapshots() <-chan treesync.Snapshot               { return t.snapshotsOut.Chan() }
func (t *Transport) SnapshotRequests() <-chan treesync.SnapshotRequest { return t.requestsOut.Chan() }

// Close unsubscribes from all three subjects and closes the receive
// buffers. It does not close the underlying *nats.Conn.
func (t *Transport) Close() error {
	t.patchSub.Unsubscribe()
	t.snapshotSub.Unsubscribe()
	t.requestSub.Unsubscribe()
	t.patchesOut.Close()
	t.snapshotsOut.Close()
	t.requestsOut.Close()
	return nil
}
