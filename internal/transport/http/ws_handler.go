package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/proto"
)

// eventHandler processes one decoded inbound envelope for a connection.
type eventHandler func(ctx context.Context, connID string, data json.RawMessage) error

// WSHandler upgrades HTTP connections and bridges their event stream to the
// relay. Payload shape is validated here; the relay only sees well-formed
// values.
type WSHandler struct {
	relay        *core.Relay
	gateway      *WSGateway
	readLimit    int64
	log          *zerolog.Logger
	handlerTable map[string]eventHandler
}

// NewWSHandler builds the websocket handler with its event dispatch table.
func NewWSHandler(relay *core.Relay, gateway *WSGateway, readLimit int64, logger *zerolog.Logger) *WSHandler {
	h := &WSHandler{
		relay:     relay,
		gateway:   gateway,
		readLimit: readLimit,
		log:       logger,
	}
	h.handlerTable = map[string]eventHandler{
		proto.EventResponseClientMetadata: h.onClientMetadata,
		proto.EventStartCapture:           h.onStartCapture,
		proto.EventStopCapture:            h.onStopCapture,
		proto.EventJoinStreamingRoom:      h.onJoinStreamingRoom,
		proto.EventLeaveStreamingRoom:     h.onLeaveStreamingRoom,
		proto.EventVideoFrameRelay:        h.onVideoFrame,
		proto.EventRequestCaptureStatus:   h.onCaptureStatusRequest,
		proto.EventBroadcastCaptureStatus: h.onCaptureStatus,
	}
	return h
}

// Handle upgrades the request and runs the connection until either side
// closes it.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	conn.SetReadLimit(h.readLimit)

	connID := uuid.NewString()
	p := h.gateway.register(connID, c.ClientIP(), conn)
	defer func() {
		h.relay.HandleDisconnect(connID)
		h.gateway.unregister(connID)
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, connID)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, p)
	}()

	h.relay.HandleConnect(connID)

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, connID string) error {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return err
		}

		handler, ok := h.handlerTable[env.Event]
		if !ok {
			h.log.Warn().Str("conn_id", connID).Str("event", env.Event).Msg("unknown event, dropped")
			continue
		}

		// Audit faults surface here; the peer sees nothing and the
		// connection stays up.
		if err := handler(ctx, connID, env.Data); err != nil {
			h.log.Error().Err(err).Str("conn_id", connID).Str("event", env.Event).Msg("event handling failed")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, p *peer) error {
	for {
		select {
		case out, ok := <-p.send:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) onClientMetadata(_ context.Context, connID string, data json.RawMessage) error {
	var meta proto.ClientMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		h.log.Warn().Err(err).Str("conn_id", connID).Msg("malformed client metadata, dropped")
		return nil
	}
	h.relay.HandleClientMetadata(connID, meta.ClientType)
	return nil
}

func (h *WSHandler) onStartCapture(ctx context.Context, connID string, _ json.RawMessage) error {
	return h.relay.HandleCaptureStart(ctx, connID)
}

func (h *WSHandler) onStopCapture(ctx context.Context, connID string, _ json.RawMessage) error {
	return h.relay.HandleCaptureStop(ctx, connID)
}

func (h *WSHandler) onJoinStreamingRoom(ctx context.Context, connID string, _ json.RawMessage) error {
	return h.relay.HandleJoinStreamingRoom(ctx, connID)
}

func (h *WSHandler) onLeaveStreamingRoom(ctx context.Context, connID string, _ json.RawMessage) error {
	return h.relay.HandleLeaveStreamingRoom(ctx, connID)
}

func (h *WSHandler) onVideoFrame(_ context.Context, connID string, data json.RawMessage) error {
	var frame proto.VideoFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.log.Warn().Err(err).Str("conn_id", connID).Msg("malformed video frame, dropped")
		return nil
	}
	h.relay.HandleVideoFrame(frame)
	return nil
}

func (h *WSHandler) onCaptureStatusRequest(_ context.Context, connID string, _ json.RawMessage) error {
	h.relay.HandleCaptureStatusRequest(connID)
	return nil
}

func (h *WSHandler) onCaptureStatus(_ context.Context, connID string, data json.RawMessage) error {
	var status proto.CaptureStatus
	if err := json.Unmarshal(data, &status); err != nil {
		h.log.Warn().Err(err).Str("conn_id", connID).Msg("malformed capture status, dropped")
		return nil
	}
	h.relay.HandleCaptureStatus(status)
	return nil
}
