package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/store"
)

// LogHandlers serves the audit log query API.
type LogHandlers struct {
	audit store.AuditStore
	log   *zerolog.Logger
}

// NewLogHandlers creates a new log handlers instance.
func NewLogHandlers(audit store.AuditStore, logger *zerolog.Logger) *LogHandlers {
	return &LogHandlers{
		audit: audit,
		log:   logger,
	}
}

// SessionEventResponse represents one audit record in API responses.
type SessionEventResponse struct {
	ID        int64             `json:"id"`
	EventType string            `json:"event_type"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// List returns all audit records, optionally filtered by event type.
// GET /api/logs[?event_type=capture_start]
func (h *LogHandlers) List(c *gin.Context) {
	var (
		events []*store.SessionEvent
		err    error
	)

	if eventType := c.Query("event_type"); eventType != "" {
		events, err = h.audit.ListEventsByType(c.Request.Context(), eventType)
	} else {
		events, err = h.audit.ListEvents(c.Request.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list session events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]SessionEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, toEventResponse(event))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one audit record by id.
// GET /api/logs/:id
func (h *LogHandlers) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid event id"})
		return
	}

	event, err := h.audit.GetEventByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
			return
		}
		h.log.Error().Err(err).Int64("event_id", id).Msg("failed to get session event")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}

func toEventResponse(event *store.SessionEvent) SessionEventResponse {
	return SessionEventResponse{
		ID:        event.ID,
		EventType: event.EventType,
		ClientIP:  event.ClientIP,
		Timestamp: event.Timestamp,
		Metadata:  event.Metadata,
	}
}
