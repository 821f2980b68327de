// Package api serves the tracker over HTTP with gin.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/tracker"
)

// NewRouter builds the engine with every route registered.
func NewRouter(svc *tracker.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := NewHandler(svc)
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.GET("/people", h.GetPeople)
		api.PUT("/people", h.PutPeople)
		api.GET("/days/:date", h.GetDay)
		api.PUT("/days/:date", h.PutDay)
		api.GET("/calendar/:year/:month", h.GetCalendar)
		api.GET("/trends", h.GetTrends)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l := logger.With("method", c.Request.Method, "path", c.FullPath())
		if l == nil {
			return
		}
		if status := c.Writer.Status(); status >= 500 {
			l.Warn("HTTP request", "status", status, "duration", time.Since(start))
		} else {
			l.Debug("HTTP request", "status", status, "duration", time.Since(start))
		}
	}
}
