package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

func NewRouter(h *HTTP, allowedOrigin string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery(), requestLogger(), cors(allowedOrigin))

	router.POST("/api/convert-image", h.ConvertImage)
	router.GET("/health", h.Health)

	return router
}

// requestLogger attaches a request scoped logger to the request context and logs each finished request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			if v4, err := uuid.NewV4(); err == nil {
				id = v4.String()
			}
		}
		c.Header(RequestIDHeader, id)

		l := log.With().Str("requestId", id).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		l.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("handled request")
	}
}

func cors(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
