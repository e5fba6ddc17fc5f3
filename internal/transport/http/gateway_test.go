package http

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/proto"
)

func newTestGateway() *WSGateway {
	logger := zerolog.Nop()
	return NewWSGateway(&logger)
}

func drain(ch chan proto.Outbound) []proto.Outbound {
	var out []proto.Outbound
	for {
		select {
		case msg := <-ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestSendToUnknownIDIsNoop(t *testing.T) {
	g := newTestGateway()

	// Must not panic, for unknown and empty ids alike.
	g.SendTo("nobody", proto.EventCaptureStartRequest, nil)
	g.SendTo("", proto.EventCaptureStartRequest, nil)
}

func TestSendToQueuesEvent(t *testing.T) {
	g := newTestGateway()
	p := g.register("c1", "127.0.0.1", nil)

	g.SendTo("c1", proto.EventRequestClientMetadata, nil)

	queued := drain(p.send)
	if len(queued) != 1 || queued[0].Event != proto.EventRequestClientMetadata {
		t.Fatalf("unexpected queue contents: %+v", queued)
	}
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	g := newTestGateway()
	member := g.register("c1", "127.0.0.1", nil)
	outsider := g.register("c2", "127.0.0.1", nil)

	g.JoinRoom("c1", core.RoomStreaming)
	g.BroadcastToRoom(core.RoomStreaming, proto.EventBroadcastVideoFrame, proto.VideoFrame{FrameData: []byte{1}})

	if got := drain(member.send); len(got) != 1 || got[0].Event != proto.EventBroadcastVideoFrame {
		t.Fatalf("member did not receive broadcast: %+v", got)
	}
	if got := drain(outsider.send); len(got) != 0 {
		t.Fatalf("outsider received broadcast: %+v", got)
	}
}

func TestLeaveRoomStopsBroadcasts(t *testing.T) {
	g := newTestGateway()
	p := g.register("c1", "127.0.0.1", nil)

	g.JoinRoom("c1", core.RoomUser)
	g.LeaveRoom("c1", core.RoomUser)
	g.BroadcastToRoom(core.RoomUser, proto.EventBroadcastCaptureStatus, nil)

	if got := drain(p.send); len(got) != 0 {
		t.Fatalf("departed member received broadcast: %+v", got)
	}
}

func TestUnregisterRemovesPeerEverywhere(t *testing.T) {
	g := newTestGateway()
	p := g.register("c1", "127.0.0.1", nil)
	g.JoinRoom("c1", core.RoomStreaming)
	g.JoinRoom("c1", core.RoomUser)

	g.unregister("c1")

	g.SendTo("c1", proto.EventCaptureStartRequest, nil)
	g.BroadcastToRoom(core.RoomStreaming, proto.EventBroadcastVideoFrame, nil)
	g.BroadcastToRoom(core.RoomUser, proto.EventBroadcastCaptureStatus, nil)

	// The send queue was closed on unregister; nothing may have been queued
	// before the close.
	if msg, ok := <-p.send; ok {
		t.Fatalf("unexpected queued message after unregister: %+v", msg)
	}
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	g := newTestGateway()
	p := g.register("c1", "127.0.0.1", nil)
	g.JoinRoom("c1", core.RoomStreaming)

	for i := 0; i < sendQueueSize+10; i++ {
		g.BroadcastToRoom(core.RoomStreaming, proto.EventBroadcastVideoFrame, nil)
	}

	if got := drain(p.send); len(got) != sendQueueSize {
		t.Fatalf("expected %d queued events, got %d", sendQueueSize, len(got))
	}
}

func TestPeerAddress(t *testing.T) {
	g := newTestGateway()
	g.register("c1", "10.1.2.3", nil)

	if got := g.PeerAddress("c1"); got != "10.1.2.3" {
		t.Fatalf("expected 10.1.2.3, got %q", got)
	}
	if got := g.PeerAddress("nobody"); got != "" {
		t.Fatalf("expected empty address for unknown id, got %q", got)
	}
}
