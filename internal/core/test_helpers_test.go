package core

import (
	"context"
	"sync"

	"github.com/streamgate/streamgate-server/internal/store"
)

// fakeGateway records every transport call the relay makes.
type fakeGateway struct {
	mu         sync.Mutex
	sends      []unicast
	joins      []roomCall
	leaves     []roomCall
	broadcasts []multicast
	producers  []string
	addrs      map[string]string
}

type unicast struct {
	to    string
	event string
}

type roomCall struct {
	id   string
	room Room
}

type multicast struct {
	room    Room
	event   string
	payload any
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{addrs: make(map[string]string)}
}

func (g *fakeGateway) SendTo(id, event string, _ any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, unicast{to: id, event: event})
}

func (g *fakeGateway) JoinRoom(id string, room Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.joins = append(g.joins, roomCall{id: id, room: room})
}

func (g *fakeGateway) LeaveRoom(id string, room Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaves = append(g.leaves, roomCall{id: id, room: room})
}

func (g *fakeGateway) BroadcastToRoom(room Room, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcasts = append(g.broadcasts, multicast{room: room, event: event, payload: payload})
}

func (g *fakeGateway) PeerAddress(id string) string {
	return g.addrs[id]
}

func (g *fakeGateway) RegisterProducer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.producers = append(g.producers, id)
}

// fakeAudit is an in-memory store.AuditStore that can be told to fail.
type fakeAudit struct {
	mu     sync.Mutex
	saved  []*store.SessionEvent
	nextID int64
	err    error
}

func (a *fakeAudit) SaveEvent(_ context.Context, event *store.SessionEvent) (*store.SessionEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.nextID++
	persisted := *event
	persisted.ID = a.nextID
	a.saved = append(a.saved, &persisted)
	return &persisted, nil
}

func (a *fakeAudit) GetEventByID(_ context.Context, id int64) (*store.SessionEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, event := range a.saved {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, store.ErrEventNotFound
}

func (a *fakeAudit) ListEvents(_ context.Context) ([]*store.SessionEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*store.SessionEvent(nil), a.saved...), nil
}

func (a *fakeAudit) ListEventsByType(_ context.Context, eventType string) ([]*store.SessionEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var events []*store.SessionEvent
	for _, event := range a.saved {
		if event.EventType == eventType {
			events = append(events, event)
		}
	}
	return events, nil
}

func (a *fakeAudit) Close() error { return nil }
