package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/proto"
	"github.com/streamgate/streamgate-server/internal/store"
)

// Client classifications a peer may declare in its metadata response.
const (
	ClientTypeStreamService = "stream-service"
	ClientTypeUser          = "user"
)

// Relay interprets inbound peer events and drives the membership table, the
// transport gateway and the audit store. It holds no state of its own; all
// durable state lives in Membership.
type Relay struct {
	membership *Membership
	gateway    Gateway
	audit      store.AuditStore
	log        *zerolog.Logger
}

// NewRelay wires the relay to its collaborators.
func NewRelay(membership *Membership, gateway Gateway, audit store.AuditStore, logger *zerolog.Logger) *Relay {
	return &Relay{
		membership: membership,
		gateway:    gateway,
		audit:      audit,
		log:        logger,
	}
}

// HandleConnect asks a freshly connected peer to identify itself. The
// connection stays unclassified until its metadata response arrives.
func (r *Relay) HandleConnect(id string) {
	r.log.Info().Str("conn_id", id).Msg("client connected")
	r.gateway.SendTo(id, proto.EventRequestClientMetadata, nil)
}

// HandleClientMetadata classifies a connection from its declared client
// type. A stream-service becomes the producer, replacing any previous
// holder; a user joins the user room. Anything else is rejected with a
// warning and the connection stays unclassified.
func (r *Relay) HandleClientMetadata(id, clientType string) {
	switch clientType {
	case ClientTypeStreamService:
		r.membership.SetProducer(id)
		r.gateway.RegisterProducer(id)
		r.log.Info().Str("conn_id", id).Msg("stream service registered")
	case ClientTypeUser:
		r.gateway.JoinRoom(id, RoomUser)
		r.membership.AddToRoom(RoomUser, id)
		r.log.Info().Str("conn_id", id).Msg("client joined user room")
	default:
		r.log.Warn().
			Str("conn_id", id).
			Str("client_type", clientType).
			Msg("unknown client type, connection stays unclassified")
	}
}

// HandleDisconnect sweeps a connection out of every room and the producer
// slot, issuing transport leave calls only for rooms it actually occupied.
// It always succeeds.
func (r *Relay) HandleDisconnect(id string) {
	for _, category := range r.membership.RemoveFromAllRooms(id) {
		switch category {
		case RemovedStreamingRoom:
			r.gateway.LeaveRoom(id, RoomStreaming)
		case RemovedUserRoom:
			r.gateway.LeaveRoom(id, RoomUser)
		case RemovedProducer:
			// The slot is not a transport room; nothing to leave.
			r.log.Warn().Str("conn_id", id).Msg("stream service disconnected")
		}
	}
	r.log.Info().Str("conn_id", id).Msg("client disconnected")
}

// HandleCaptureStart relays a start command to the current producer, then
// records the request. With no producer registered the command send is a
// silent no-op; the audit record is written regardless. An audit failure
// does not undo the already-sent command.
func (r *Relay) HandleCaptureStart(ctx context.Context, requesterID string) error {
	producer, _ := r.membership.Producer()
	r.gateway.SendTo(producer, proto.EventCaptureStartRequest, nil)
	return r.auditRequest(ctx, store.EventCaptureStart, requesterID)
}

// HandleCaptureStop relays a stop command to the current producer, then
// records the request. Same ordering and failure semantics as
// HandleCaptureStart.
func (r *Relay) HandleCaptureStop(ctx context.Context, requesterID string) error {
	producer, _ := r.membership.Producer()
	r.gateway.SendTo(producer, proto.EventCaptureStopRequest, nil)
	return r.auditRequest(ctx, store.EventCaptureStop, requesterID)
}

// HandleJoinStreamingRoom subscribes a viewer to the frame broadcast room
// and records the join.
func (r *Relay) HandleJoinStreamingRoom(ctx context.Context, id string) error {
	r.gateway.JoinRoom(id, RoomStreaming)
	r.membership.AddToRoom(RoomStreaming, id)
	return r.auditRequest(ctx, store.EventJoinStreamingRoom, id)
}

// HandleLeaveStreamingRoom unsubscribes a viewer from the frame broadcast
// room and records the leave.
func (r *Relay) HandleLeaveStreamingRoom(ctx context.Context, id string) error {
	r.gateway.LeaveRoom(id, RoomStreaming)
	r.membership.RemoveFromRoom(RoomStreaming, id)
	return r.auditRequest(ctx, store.EventLeaveStreamingRoom, id)
}

// HandleVideoFrame fans a captured frame out to the streaming room. The
// sender is not checked against the registered producer. Frames are too
// frequent to audit.
func (r *Relay) HandleVideoFrame(frame proto.VideoFrame) {
	r.gateway.BroadcastToRoom(RoomStreaming, proto.EventBroadcastVideoFrame, frame)
}

// HandleCaptureStatusRequest forwards a status query to the current
// producer. Fire-and-forget: the answer arrives asynchronously via
// HandleCaptureStatus and goes to the whole user room, not the requester.
func (r *Relay) HandleCaptureStatusRequest(id string) {
	producer, _ := r.membership.Producer()
	r.gateway.SendTo(producer, proto.EventRequestCaptureStatus, nil)
}

// HandleCaptureStatus fans the producer's status report out to the user
// room.
func (r *Relay) HandleCaptureStatus(status proto.CaptureStatus) {
	r.gateway.BroadcastToRoom(RoomUser, proto.EventBroadcastCaptureStatus, status)
}

// auditRequest records a lifecycle event attributed to the requesting
// connection. Persistence faults propagate as-is; no retries, no fallback.
func (r *Relay) auditRequest(ctx context.Context, eventType, requesterID string) error {
	event := store.NewSessionEvent(eventType, r.gateway.PeerAddress(requesterID), map[string]string{
		"sid": requesterID,
	})
	_, err := r.audit.SaveEvent(ctx, event)
	return err
}
