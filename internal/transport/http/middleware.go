package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/sanitize"
)

// ContextKeyUser is the context key for the caller's participant name.
const ContextKeyUser = "user"

// HeaderUser carries the caller's participant name on every request.
const HeaderUser = "User"

// UserIdentity extracts and sanitizes the User header into the request
// context. An absent or markup-only header yields an empty identity;
// each handler decides what that means for its operation.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUser, sanitize.Clean(c.GetHeader(HeaderUser)))
		c.Next()
	}
}

func userFrom(c *gin.Context) string {
	return c.GetString(ContextKeyUser)
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
