package core

// Gateway abstracts the realtime transport the relay drives. The production
// adapter lives in the transport layer; tests substitute an in-memory fake.
type Gateway interface {
	// SendTo unicasts an event to one connection. Unknown or empty ids are
	// silently ignored.
	SendTo(id string, event string, payload any)

	// JoinRoom subscribes a connection to a room's broadcasts.
	JoinRoom(id string, room Room)

	// LeaveRoom unsubscribes a connection from a room's broadcasts.
	LeaveRoom(id string, room Room)

	// BroadcastToRoom fans an event out to every current room member.
	// Delivery is best-effort; slow consumers may miss broadcasts.
	BroadcastToRoom(room Room, event string, payload any)

	// PeerAddress reports the remote network address of a connection, or an
	// empty string for unknown ids.
	PeerAddress(id string) string

	// RegisterProducer marks a connection as the capture source so the
	// transport can lift per-message limits for frame payloads.
	RegisterProducer(id string)
}
