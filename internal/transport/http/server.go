package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/config"
	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/store"
)

// NewServer builds the HTTP server: health check, websocket endpoint and
// the audit log query API.
func NewServer(relay *core.Relay, gateway *WSGateway, audit store.AuditStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	ws := NewWSHandler(relay, gateway, cfg.MaxMessageBytes, logger)
	router.GET("/ws", ws.Handle)

	logs := NewLogHandlers(audit, logger)
	api := router.Group("/api")
	api.GET("/logs", logs.List)
	api.GET("/logs/:id", logs.Get)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
