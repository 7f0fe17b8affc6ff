package nats

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/wayneeseguin/treesync/pkg/treesync"
)

func startTestNATSServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	opts := &server.Options{Port: -1}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded nats-server: %v", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded nats-server never became ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns, ns.ClientURL()
}

func TestTransportPatchRoundTrip(t *testing.T) {
	Convey("a patch published by one peer is received by another", t, func() {
		_, url := startTestNATSServer(t)

		connA, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connA.Close()
		connB, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connB.Close()

		a, err := New(connA, "match-1", Options{})
		So(err, ShouldBeNil)
		defer a.Close()
		b, err := New(connB, "match-1", Options{})
		So(err, ShouldBeNil)
		defer b.Close()

		err = a.SendPatch(context.Background(), treesync.Patch{Path: "counter", Value: treesync.IntValue(42)})
		So(err, ShouldBeNil)

		select {
		case p := <-b.Patches():
			So(p.Path, ShouldEqual, "counter")
			So(p.Value.I, ShouldEqual, 42)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for patch")
		}
	})
}

func TestTransportSnapshotRoundTrip(t *testing.T) {
	Convey("a snapshot with a string root state round trips", t, func() {
		_, url := startTestNATSServer(t)

		connA, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connA.Close()
		connB, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connB.Close()

		a, err := New(connA, "match-2", Options{})
		So(err, ShouldBeNil)
		defer a.Close()
		b, err := New(connB, "match-2", Options{})
		So(err, ShouldBeNil)
		defer b.Close()

		snap := treesync.Snapshot{TypeTag: "World", RootState: treesync.StringValue("hello")}
		So(a.SendSnapshot(context.Background(), snap), ShouldBeNil)

		select {
		case got := <-b.Snapshots():
			So(got.TypeTag, ShouldEqual, "World")
			So(got.RootState.S, ShouldEqual, "hello")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	})
}

func TestTransportSnapshotRequestRoundTrip(t *testing.T) {
	Convey("a snapshot request round trips", t, func() {
		_, url := startTestNATSServer(t)

		connA, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connA.Close()
		connB, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer connB.Close()

		a, err := New(connA, "match-3", Options{})
		So(err, ShouldBeNil)
		defer a.Close()
		b, err := New(connB, "match-3", Options{})
		So(err, ShouldBeNil)
		defer b.Close()

		So(a.SendSnapshotRequest(context.Background(), treesync.SnapshotRequest{Reason: treesync.ReasonJoining}), ShouldBeNil)

		select {
		case got := <-b.SnapshotRequests():
			So(got.Reason, ShouldEqual, treesync.ReasonJoining)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot request")
		}
	})
}

func TestTransportEchoesToSender(t *testing.T) {
	Convey("a sender receives its own published patch back", t, func() {
		_, url := startTestNATSServer(t)

		conn, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer conn.Close()

		a, err := New(conn, "match-4", Options{})
		So(err, ShouldBeNil)
		defer a.Close()

		So(a.SendPatch(context.Background(), treesync.Patch{Path: "counter", Value: treesync.IntValue(1)}), ShouldBeNil)

		select {
		case p := <-a.Patches():
			So(p.Path, ShouldEqual, "counter")
		case <-time.After(500 * time.Millisecond):
			t.Fatal("same connection should still see its own publish under core NATS pub/sub")
		}
	})
}
