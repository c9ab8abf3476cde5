package http

import (
	stdhttp "net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/config"
	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/service/messages"
	"github.com/gfranca/batepapo-server/internal/service/registry"
)

// NewServer builds the HTTP server with all chat routes.
func NewServer(reg *registry.Service, msgs *messages.Service, hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, HeaderUser)

	router.Use(
		gin.Recovery(),
		LoggerMiddleware(logger),
		cors.New(corsCfg),
		UserIdentity(),
	)

	participantHandlers := NewParticipantHandlers(reg, logger)
	messageHandlers := NewMessageHandlers(msgs, logger)
	streamHandler := NewStreamHandler(hub, logger)

	router.GET("/health", healthHandler)

	router.POST("/participants", participantHandlers.Join)
	router.GET("/participants", participantHandlers.List)
	router.POST("/status", participantHandlers.Heartbeat)

	router.POST("/messages", messageHandlers.Post)
	router.GET("/messages", messageHandlers.List)
	router.PUT("/messages/:id", messageHandlers.Update)
	router.DELETE("/messages/:id", messageHandlers.Delete)

	router.GET("/stream", streamHandler.Stream)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
