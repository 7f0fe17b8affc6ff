package treesync

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// PathParseError reports a malformed path literal (§7: PathParse).
type PathParseError struct {
	Literal string
	Cause   error
}

func (e *PathParseError) Error() string {
	return fmt.Sprintf("treesync: cannot parse path %q: %v", e.Literal, e.Cause)
}

func (e *PathParseError) Unwrap() error { return e.Cause }

// RouteReason distinguishes the ways routing a path inward can fail.
type RouteReason int

const (
	ReasonUnknownMember RouteReason = iota
	ReasonWrongKind
	ReasonIndexOutOfRange
	ReasonUnknownKey
	ReasonEmptyPathToNode
	ReasonUnknownOp
)

// PathRouteError reports that a path could not be routed to a leaf
// (§7: PathRoute). Path carries the full original path; At carries how far
// routing got before failing.
type PathRouteError struct {
	Path   Path
	At     Path
	Reason RouteReason
	Detail string
}

func (e *PathRouteError) Error() string {
	return fmt.Sprintf("treesync: cannot route %q at %q: %s", e.Path.Format(), e.At.Format(), e.Detail)
}

// TypeMismatchError reports that an incoming Value could not be coerced to
// the destination cell's type (§7: TypeMismatch).
type TypeMismatchError struct {
	Path   Path
	Wanted string
	Got    ValueKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("treesync: %q wants %s, got value kind %d", e.Path.Format(), e.Wanted, int(e.Got))
}

// SnapshotTypeMismatchError reports that a Snapshot's type tag disagrees
// with the target sync node's (§7: SnapshotTypeMismatch).
type SnapshotTypeMismatchError struct {
	Want string
	Got  string
}

func (e *SnapshotTypeMismatchError) Error() string {
	return fmt.Sprintf("treesync: snapshot type tag %q does not match %q", e.Got, e.Want)
}

// ReservedCollisionError reports that a declared member name collides with
// a reserved opcode (§6, §7: ReservedCollision), starts with the reserved
// "_" prefix, or is already declared on the same node. It is raised at type
// registration time, never at routing time, by design (fail fast).
type ReservedCollisionError struct {
	Owner  string
	Member string
}

func (e *ReservedCollisionError) Error() string {
	return fmt.Sprintf("treesync: %s declares member %q, which is a reserved name or already declared", e.Owner, e.Member)
}

// TransportBackpressureError reports that the outbound queue to the
// transport collaborator is full (§7: TransportBackpressure). The core does
// not retry; the caller decides.
type TransportBackpressureError struct {
	Path Path
}

func (e *TransportBackpressureError) Error() string {
	return fmt.Sprintf("treesync: outbound queue full, dropped patch for %q", e.Path.Format())
}

// SnapshotErrors aggregates every leaf-level failure encountered during a
// partial snapshot traversal (§4.D: "partial failure during traversal does
// not roll back already-applied cells; the error is surfaced to the
// caller"). Built on hashicorp/go-multierror rather than a hand-rolled
// aggregate, since the teacher's own module graph already carries it.
type SnapshotErrors struct {
	merr *multierror.Error
}

func (s *SnapshotErrors) add(err error) {
	s.merr = multierror.Append(s.merr, err)
}

// ErrorOrNil returns nil if no leaf error was recorded, else an error
// listing every one encountered.
func (s *SnapshotErrors) ErrorOrNil() error {
	if s == nil || s.merr == nil {
		return nil
	}
	return s.merr.ErrorOrNil()
}

func (s *SnapshotErrors) Len() int {
	if s == nil || s.merr == nil {
		return 0
	}
	return len(s.merr.Errors)
}
