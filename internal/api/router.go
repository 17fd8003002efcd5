// Package api exposes the wizards and the SPV back office over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"opulanz-onboarding/internal/admin"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Deps struct {
	Engine *wizard.Engine
	Admin  *admin.Service
	Logger logger.Logger
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

// NewRouter wires every route. A nil Admin leaves the back office unmounted.
func NewRouter(deps Deps) *gin.Engine {
	log := deps.Logger.WithFields(map[string]interface{}{"component": "api"})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readiness(deps.Checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	wh := &wizardHandler{engine: deps.Engine, log: log}
	v1.GET("/wizards", wh.catalog)
	v1.GET("/applications/:user", wh.history)

	sessions := v1.Group("/wizards/:wizard/sessions/:user")
	sessions.GET("", wh.resume)
	sessions.PATCH("/steps/:step", wh.update)
	sessions.POST("/next", wh.next)
	sessions.POST("/back", wh.back)
	sessions.POST("/goto/:n", wh.goTo)
	sessions.POST("/reset", wh.reset)
	sessions.POST("/submit", wh.submit)
	sessions.POST("/schedule", wh.schedule)

	if deps.Admin != nil {
		registerAdmin(v1.Group("/admin"), &adminHandler{svc: deps.Admin, log: log})
	}
	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed", fields)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			log.Debug("request handled", fields)
		default:
			log.Info("request handled", fields)
		}
	}
}

func readiness(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": results})
	}
}
