package store

import (
	"context"
	"errors"
	"time"
)

// Audit event types recorded by the relay.
const (
	EventCaptureStart       = "capture_start"
	EventCaptureStop        = "capture_stop"
	EventJoinStreamingRoom  = "join_streaming_room"
	EventLeaveStreamingRoom = "leave_streaming_room"
)

// ErrEventNotFound is returned when a session event id does not exist.
var ErrEventNotFound = errors.New("session event not found")

// SessionEvent is one immutable audit record of a session lifecycle event.
// ID is assigned by the store on save.
type SessionEvent struct {
	ID        int64
	EventType string
	ClientIP  string
	Timestamp time.Time
	Metadata  map[string]string
}

// NewSessionEvent builds a record stamped with the current time.
func NewSessionEvent(eventType, clientIP string, metadata map[string]string) *SessionEvent {
	return &SessionEvent{
		EventType: eventType,
		ClientIP:  clientIP,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// AuditStore persists session lifecycle events and serves point and range
// queries over them.
type AuditStore interface {
	// SaveEvent appends one event and returns the persisted record with its
	// assigned id.
	SaveEvent(ctx context.Context, event *SessionEvent) (*SessionEvent, error)

	// GetEventByID returns one event or ErrEventNotFound.
	GetEventByID(ctx context.Context, id int64) (*SessionEvent, error)

	// ListEvents returns all recorded events in insertion order.
	ListEvents(ctx context.Context) ([]*SessionEvent, error)

	// ListEventsByType returns all events with the given type in insertion
	// order.
	ListEventsByType(ctx context.Context, eventType string) ([]*SessionEvent, error)

	// Close releases the underlying storage.
	Close() error
}
