package treesync

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wayneeseguin/treesync/internal/config"
)

// DispatcherState is the root dispatcher's connection state (§4.H).
type DispatcherState int

const (
	Detached DispatcherState = iota
	Joining
	Synced
)

func (s DispatcherState) String() string {
	switch s {
	case Detached:
		return "detached"
	case Joining:
		return "joining"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// DispatcherEvent is one of the three state transitions a caller can
// observe (§6: "Connected, Snapshotted, Disconnected").
type DispatcherEvent int

const (
	Connected DispatcherEvent = iota
	Snapshotted
	Disconnected
)

// Dispatcher owns a root SyncNode, subscribes to its bubble stream, turns
// local FieldChanges into outbound Patches, drains inbound Patch/Snapshot/
// SnapshotRequest records from a Transport on a bounded per-tick budget,
// and drives the Detached/Joining/Synced state machine (§4.H, §5).
//
// The queue drain is the only place the dispatcher touches inbound data;
// every mutation on the tree happens synchronously inside Tick, on
// whatever goroutine calls it — the "model thread" of §5. Nothing here
// spawns its own goroutine to mutate the tree.
type Dispatcher struct {
	root      *SyncNode
	transport Transport
	mode      config.AuthorityMode

	maxDrainPerTick int
	joiningTimeout  time.Duration
	limiter         *rate.Limiter

	mu             sync.Mutex
	state          DispatcherState
	joinedAt       time.Time
	eventObservers []func(DispatcherEvent)

	logger config.Logger

	unwireRoot func()
}

// NewDispatcher constructs a Dispatcher over root and transport, tuned by
// cfg (tick drain bound, joining timeout, snapshot-request rate). mode
// decides whether Joining/SnapshotRequest logic runs at all: a Router
// dispatcher goes straight to Synced without requesting a snapshot and
// never answers one; both modes apply inbound patches and send their own
// local changes the same way (SPEC_FULL.md's resolution of the
// authority-mode Open Question).
func NewDispatcher(root *SyncNode, transport Transport, cfg config.DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		root:            root,
		transport:       transport,
		mode:            cfg.Mode,
		maxDrainPerTick: cfg.MaxDrainPerTick,
		joiningTimeout:  cfg.JoiningTimeout,
		limiter:         rate.NewLimiter(rate.Limit(cfg.SnapshotRequestRate), 1),
		state:           Detached,
		logger:          config.DefaultLogger{},
	}
	d.unwireRoot = root.bubbleSubscribe(d.onLocalChange)
	return d
}

// SetLogger replaces the dispatcher's logger (config.DefaultLogger by
// default). A nil logger is ignored.
func (d *Dispatcher) SetLogger(logger config.Logger) {
	if logger == nil {
		return
	}
	d.mu.Lock()
	d.logger = logger
	d.mu.Unlock()
}

// State returns the dispatcher's current connection state.
func (d *Dispatcher) State() DispatcherState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// OnEvent registers an observer fired on every Connected/Snapshotted/
// Disconnected transition.
func (d *Dispatcher) OnEvent(fn func(DispatcherEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eventObservers = append(d.eventObservers, fn)
}

func (d *Dispatcher) emitEvent(ev DispatcherEvent) {
	d.mu.Lock()
	observers := make([]func(DispatcherEvent), len(d.eventObservers))
	copy(observers, d.eventObservers)
	d.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// onLocalChange turns one outbound FieldChange from the root's bubble
// stream into a Patch and hands it to the transport. Backpressure is
// surfaced to whoever is watching dispatcher errors, not retried.
func (d *Dispatcher) onLocalChange(fc FieldChange) {
	if d.State() != Synced {
		d.logger.Debugf("dispatcher: dropping local change at %s, not synced", fc.Path.Format())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.transport.SendPatch(ctx, Patch{Path: fc.Path.Format(), Value: fc.New}); err != nil {
		d.logger.Warnf("dispatcher: dropping outbound patch at %s: %v", fc.Path.Format(), err)
		return
	}
	d.logger.Debugf("dispatcher: sent patch at %s", fc.Path.Format())
}

// Connect transitions Detached → Joining and, for an Authoritative-mode
// follower, immediately requests a snapshot. A Router-mode dispatcher
// skips straight to Synced, since it has no authoritative source of its
// own to join against.
func (d *Dispatcher) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.state != Detached {
		d.mu.Unlock()
		return nil
	}
	if d.mode == config.Router {
		d.state = Synced
	} else {
		d.state = Joining
		d.joinedAt = time.Now()
	}
	state := d.state
	d.mu.Unlock()

	d.logger.Debugf("dispatcher: connecting in %s mode, entering %s", d.mode, state)
	d.emitEvent(Connected)

	if state == Joining {
		return d.requestSnapshot(ctx)
	}
	return nil
}

// Disconnect transitions back to Detached. No tree state is mutated —
// only the connection state machine moves (§4.H).
func (d *Dispatcher) Disconnect() {
	d.mu.Lock()
	if d.state == Detached {
		d.mu.Unlock()
		return
	}
	d.state = Detached
	d.mu.Unlock()

	d.logger.Debugf("dispatcher: disconnected")
	d.emitEvent(Disconnected)
}

func (d *Dispatcher) requestSnapshot(ctx context.Context) error {
	if !d.limiter.Allow() {
		d.logger.Debugf("dispatcher: snapshot request rate-limited")
		return nil
	}
	d.logger.Debugf("dispatcher: requesting snapshot")
	return d.transport.SendSnapshotRequest(ctx, SnapshotRequest{Reason: ReasonJoining})
}

// Tick drains up to maxDrainPerTick inbound records from the transport
// and applies them to the root. Each pass takes a waiting Snapshot first,
// then a Patch, then a SnapshotRequest; records of one kind are applied in
// the order their channel delivers them.
// Path/type/snapshot errors on an inbound Patch are reported through
// errs and drop that one record; they never corrupt state and never
// produce an outbound FieldChange (§7, §8 invariant 4). Tick also retries
// a stalled Joining state's SnapshotRequest once joiningTimeout has
// elapsed.
func (d *Dispatcher) Tick(ctx context.Context) (errs []error) {
	state := d.State()

	if state == Joining && time.Since(d.joinedAt) > d.joiningTimeout {
		if err := d.requestSnapshot(ctx); err != nil {
			errs = append(errs, err)
		}
		d.mu.Lock()
		d.joinedAt = time.Now()
		d.mu.Unlock()
	}

	drained := 0
	for drained < d.maxDrainPerTick {
		select {
		case snap, ok := <-d.transport.Snapshots():
			if !ok {
				return errs
			}
			if err := d.applySnapshot(snap); err != nil {
				errs = append(errs, err)
			}
			drained++
			continue
		default:
		}

		select {
		case p, ok := <-d.transport.Patches():
			if !ok {
				return errs
			}
			if d.State() != Synced {
				d.logger.Debugf("dispatcher: dropping inbound patch at %s, not synced", p.Path)
				drained++
				continue
			}
			if err := d.root.ApplyPatch(p.Path, p.Value); err != nil {
				d.logger.Warnf("dispatcher: routing error applying patch at %s: %v", p.Path, err)
				errs = append(errs, err)
			} else {
				d.logger.Debugf("dispatcher: applied inbound patch at %s", p.Path)
			}
			drained++
			continue
		default:
		}

		select {
		case req, ok := <-d.transport.SnapshotRequests():
			if !ok {
				return errs
			}
			if d.mode == config.Authoritative && d.State() == Synced {
				d.logger.Debugf("dispatcher: answering snapshot request (reason=%d)", req.Reason)
				if err := d.transport.SendSnapshot(ctx, d.root.Encode()); err != nil {
					d.logger.Warnf("dispatcher: dropping snapshot response: %v", err)
				}
			} else {
				d.logger.Debugf("dispatcher: dropping snapshot request, not an authoritative+synced peer")
			}
			drained++
			continue
		default:
		}

		break
	}
	return errs
}

func (d *Dispatcher) applySnapshot(snap Snapshot) error {
	if err := d.root.ApplySnapshot(snap); err != nil {
		d.logger.Warnf("dispatcher: rejecting snapshot for type %s: %v", snap.TypeTag, err)
		d.mu.Lock()
		d.state = Joining
		d.joinedAt = time.Now()
		d.mu.Unlock()
		return err
	}

	d.logger.Debugf("dispatcher: applied snapshot for type %s, now synced", snap.TypeTag)
	d.mu.Lock()
	d.state = Synced
	d.mu.Unlock()

	d.emitEvent(Snapshotted)
	return nil
}

// Close unsubscribes from the root's bubble stream. It does not close the
// transport, which the caller owns.
func (d *Dispatcher) Close() {
	if d.unwireRoot != nil {
		d.unwireRoot()
	}
}

// Run ticks the dispatcher every interval until ctx is cancelled,
// reporting every Tick's errors to onError (which may be nil).
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, err := range d.Tick(ctx) {
				if onError != nil {
					onError(err)
				}
			}
		}
	}
}
