package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/streamgate/streamgate-server/internal/store"
)

func seedEvents(t *testing.T, audit store.AuditStore, eventTypes ...string) []*store.SessionEvent {
	t.Helper()

	var seeded []*store.SessionEvent
	for _, eventType := range eventTypes {
		event := store.NewSessionEvent(eventType, "127.0.0.1", map[string]string{"sid": "c1"})
		persisted, err := audit.SaveEvent(context.Background(), event)
		if err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
		seeded = append(seeded, persisted)
	}
	return seeded
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestListLogs(t *testing.T) {
	ts, audit := startTestServer(t)
	seedEvents(t, audit,
		store.EventCaptureStart,
		store.EventJoinStreamingRoom,
		store.EventCaptureStart,
	)

	var events []SessionEventResponse
	if status := getJSON(t, ts.URL+"/api/logs", &events); status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventType != store.EventCaptureStart || events[1].EventType != store.EventJoinStreamingRoom {
		t.Fatalf("unexpected order: %+v", events)
	}
	if events[0].Metadata["sid"] != "c1" {
		t.Fatalf("metadata lost in response: %+v", events[0])
	}
}

func TestListLogsFilteredByEventType(t *testing.T) {
	ts, audit := startTestServer(t)
	seedEvents(t, audit,
		store.EventCaptureStart,
		store.EventCaptureStop,
		store.EventCaptureStart,
	)

	var events []SessionEventResponse
	if status := getJSON(t, ts.URL+"/api/logs?event_type="+store.EventCaptureStart, &events); status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, event := range events {
		if event.EventType != store.EventCaptureStart {
			t.Fatalf("filter leaked %s", event.EventType)
		}
	}
}

func TestListLogsEmpty(t *testing.T) {
	ts, _ := startTestServer(t)

	var events []SessionEventResponse
	if status := getJSON(t, ts.URL+"/api/logs", &events); status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty list, got %+v", events)
	}
}

func TestGetLogByID(t *testing.T) {
	ts, audit := startTestServer(t)
	seeded := seedEvents(t, audit, store.EventLeaveStreamingRoom)

	var event SessionEventResponse
	url := fmt.Sprintf("%s/api/logs/%d", ts.URL, seeded[0].ID)
	if status := getJSON(t, url, &event); status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}

	if event.ID != seeded[0].ID || event.EventType != store.EventLeaveStreamingRoom {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestGetLogByIDNotFound(t *testing.T) {
	ts, _ := startTestServer(t)

	if status := getJSON(t, ts.URL+"/api/logs/999", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGetLogByIDInvalid(t *testing.T) {
	ts, _ := startTestServer(t)

	if status := getJSON(t, ts.URL+"/api/logs/abc", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
