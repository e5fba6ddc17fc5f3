package http

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/proto"
)

const sendQueueSize = 32

// peer is one registered websocket connection as the gateway sees it.
type peer struct {
	id   string
	addr string
	conn *websocket.Conn
	send chan proto.Outbound

	mu     sync.Mutex
	closed bool
}

// trySend queues an outbound event. Returns false when the peer is closing
// or its queue is full; slow consumers never block the relay.
func (p *peer) trySend(out proto.Outbound) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.send <- out:
		return true
	default:
		return false
	}
}

// close shuts the send queue. Safe to call more than once.
func (p *peer) close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
	p.mu.Unlock()
}

// WSGateway implements core.Gateway over websocket connections. It keeps a
// registry of live peers and transport-level room subscriptions; the
// websocket handler registers connections as they arrive.
type WSGateway struct {
	mu    sync.RWMutex
	peers map[string]*peer
	rooms map[core.Room]map[string]*peer
	log   *zerolog.Logger
}

// NewWSGateway builds a gateway with both relay rooms present and empty.
func NewWSGateway(logger *zerolog.Logger) *WSGateway {
	return &WSGateway{
		peers: make(map[string]*peer),
		rooms: map[core.Room]map[string]*peer{
			core.RoomStreaming: {},
			core.RoomUser:      {},
		},
		log: logger,
	}
}

// register adds a connection to the registry and returns its peer handle.
func (g *WSGateway) register(id, addr string, conn *websocket.Conn) *peer {
	p := &peer{
		id:   id,
		addr: addr,
		conn: conn,
		send: make(chan proto.Outbound, sendQueueSize),
	}

	g.mu.Lock()
	g.peers[id] = p
	g.mu.Unlock()

	return p
}

// unregister drops a connection from the registry and any room it is still
// subscribed to, then closes its send queue.
func (g *WSGateway) unregister(id string) {
	g.mu.Lock()
	p := g.peers[id]
	delete(g.peers, id)
	for _, members := range g.rooms {
		delete(members, id)
	}
	g.mu.Unlock()

	if p != nil {
		p.close()
	}
}

// SendTo unicasts an event to one connection. Unknown or empty ids are
// silently ignored.
func (g *WSGateway) SendTo(id, event string, payload any) {
	g.mu.RLock()
	p := g.peers[id]
	g.mu.RUnlock()
	if p == nil {
		return
	}
	if !p.trySend(proto.Outbound{Event: event, Data: payload}) {
		g.log.Debug().Str("conn_id", id).Str("event", event).Msg("send queue full, event dropped")
	}
}

// JoinRoom subscribes a registered connection to a room's broadcasts.
func (g *WSGateway) JoinRoom(id string, room core.Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.rooms[room]
	if !ok {
		return
	}
	if p, ok := g.peers[id]; ok {
		members[id] = p
	}
}

// LeaveRoom unsubscribes a connection from a room's broadcasts.
func (g *WSGateway) LeaveRoom(id string, room core.Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if members, ok := g.rooms[room]; ok {
		delete(members, id)
	}
}

// BroadcastToRoom fans an event out to every current room member.
// Best-effort: members with full queues miss the event.
func (g *WSGateway) BroadcastToRoom(room core.Room, event string, payload any) {
	g.mu.RLock()
	members := make([]*peer, 0, len(g.rooms[room]))
	for _, p := range g.rooms[room] {
		members = append(members, p)
	}
	g.mu.RUnlock()

	out := proto.Outbound{Event: event, Data: payload}
	for _, p := range members {
		if !p.trySend(out) {
			g.log.Debug().Str("conn_id", p.id).Str("event", event).Msg("broadcast dropped for slow consumer")
		}
	}
}

// PeerAddress reports the remote network address of a connection, or an
// empty string for unknown ids.
func (g *WSGateway) PeerAddress(id string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if p, ok := g.peers[id]; ok {
		return p.addr
	}
	return ""
}

// RegisterProducer lifts the read limit on the producer's connection so
// frame payloads pass where the viewer default would reject them.
func (g *WSGateway) RegisterProducer(id string) {
	g.mu.RLock()
	p := g.peers[id]
	g.mu.RUnlock()

	if p != nil && p.conn != nil {
		p.conn.SetReadLimit(-1)
	}
}
