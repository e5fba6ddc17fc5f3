package proto

import "encoding/json"

// Inbound event names, as sent by peers.
const (
	EventResponseClientMetadata = "response_client_metadata"
	EventStartCapture           = "start_capture"
	EventStopCapture            = "stop_capture"
	EventJoinStreamingRoom      = "join_streaming_room"
	EventLeaveStreamingRoom     = "leave_streaming_room"
	EventVideoFrameRelay        = "video_frame_relay"
	EventRequestCaptureStatus   = "request_capture_status"
	EventBroadcastCaptureStatus = "broadcast_capture_status"
)

// Outbound event names, as sent by the server.
const (
	EventRequestClientMetadata = "request_client_metadata"
	EventCaptureStartRequest   = "capture_start_request"
	EventCaptureStopRequest    = "capture_stop_request"
	EventBroadcastVideoFrame   = "broadcast_video_frame"
)

// Envelope frames every message coming from a peer. Data stays raw until
// the handler for the named event decodes it.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound frames every message sent to a peer.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ClientMetadata is the peer's answer to a metadata request.
type ClientMetadata struct {
	ClientType string `json:"client_type"`
}

// VideoFrame carries one opaque captured frame.
type VideoFrame struct {
	FrameData []byte `json:"frame_data"`
}

// CaptureStatus reports the capture source's current state.
type CaptureStatus struct {
	RTSPURL  string `json:"rtsp_url"`
	IsActive bool   `json:"is_active"`
}
