package core

import "sync"

// Room identifies one of the relay's multicast groups.
type Room string

const (
	// RoomStreaming carries video frames to viewers that opted in.
	RoomStreaming Room = "streaming"
	// RoomUser carries capture status updates to every connected user.
	RoomUser Room = "user"
)

// RemovalCategory names what a connection was removed from during a
// disconnect sweep.
type RemovalCategory string

const (
	RemovedStreamingRoom RemovalCategory = "streaming_room"
	RemovedUserRoom      RemovalCategory = "user_room"
	RemovedProducer      RemovalCategory = "stream_service"
)

// Membership tracks which connections belong to which room plus the single
// producer slot. It is the only mutable shared state in the relay; all
// methods are safe for concurrent use and never block on I/O.
type Membership struct {
	mu        sync.Mutex
	streaming map[string]struct{}
	users     map[string]struct{}
	producer  string
}

// NewMembership constructs an empty membership table.
func NewMembership() *Membership {
	return &Membership{
		streaming: make(map[string]struct{}),
		users:     make(map[string]struct{}),
	}
}

// SetProducer designates a connection as the capture source. A previous
// holder is overwritten unconditionally; last writer wins.
func (m *Membership) SetProducer(id string) {
	m.mu.Lock()
	m.producer = id
	m.mu.Unlock()
}

// Producer returns the current capture source, if one is registered.
func (m *Membership) Producer() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.producer, m.producer != ""
}

// AddToRoom inserts a connection into a room. Adding an existing member is
// a no-op.
func (m *Membership) AddToRoom(room Room, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set := m.roomSet(room); set != nil {
		set[id] = struct{}{}
	}
}

// RemoveFromRoom removes a connection from a room. Absent members are
// skipped, never an error.
func (m *Membership) RemoveFromRoom(room Room, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set := m.roomSet(room); set != nil {
		delete(set, id)
	}
}

// RemoveFromAllRooms sweeps a connection out of both rooms and the producer
// slot, atomically with respect to concurrent registrations of the same id.
// It reports exactly which categories were vacated, checked in a fixed
// order: streaming room, user room, producer slot. An id that matched
// nothing yields an empty result.
func (m *Membership) RemoveFromAllRooms(id string) []RemovalCategory {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []RemovalCategory

	if _, ok := m.streaming[id]; ok {
		delete(m.streaming, id)
		removed = append(removed, RemovedStreamingRoom)
	}
	if _, ok := m.users[id]; ok {
		delete(m.users, id)
		removed = append(removed, RemovedUserRoom)
	}
	if m.producer == id {
		m.producer = ""
		removed = append(removed, RemovedProducer)
	}

	return removed
}

// Members returns an independent snapshot of a room's member set. Mutating
// the returned map never affects internal state.
func (m *Membership) Members(room Room) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.roomSet(room)
	copied := make(map[string]struct{}, len(set))
	for id := range set {
		copied[id] = struct{}{}
	}
	return copied
}

// IsMember reports whether a connection belongs to a room.
func (m *Membership) IsMember(room Room, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.roomSet(room)
	_, ok := set[id]
	return ok
}

// roomSet must be called with the mutex held. Unknown rooms map to nil.
func (m *Membership) roomSet(room Room) map[string]struct{} {
	switch room {
	case RoomStreaming:
		return m.streaming
	case RoomUser:
		return m.users
	default:
		return nil
	}
}
