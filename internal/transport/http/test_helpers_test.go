package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/config"
	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/store"
	"github.com/streamgate/streamgate-server/internal/store/sqlite"
)

// startTestServer wires a full server around an in-memory audit store.
func startTestServer(t *testing.T) (*httptest.Server, store.AuditStore) {
	t.Helper()

	audit, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create audit store: %v", err)
	}
	t.Cleanup(func() { audit.Close() })

	logger := zerolog.Nop()
	membership := core.NewMembership()
	gateway := NewWSGateway(&logger)
	relay := core.NewRelay(membership, gateway, audit, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(relay, gateway, audit, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, audit
}
