package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Leen2210/Chatbot-Samator/internal/config"
	"github.com/Leen2210/Chatbot-Samator/internal/conversation"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
	"github.com/Leen2210/Chatbot-Samator/platform/validator"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewRouter assembles the gin engine for the chat API.
func NewRouter(cfg *config.Config, convRouter *conversation.Router, val *validator.Validator, health HealthChecker, log *logger.Logger) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log))
	engine.Use(cors.New(corsConfig(cfg)))

	engine.GET("/api/health", func(c *gin.Context) {
		if err := health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := NewIPRateLimiter(rate.Limit(cfg.WebhookRPS), cfg.WebhookBurst, log)

	v1 := engine.Group("/api/v1")
	v1.Use(limiter.RateLimit())

	handler := NewHandler(convRouter, val, log)
	handler.RegisterRoutes(v1)

	return engine
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowAll {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.CORSOrigins
	return c
}
