package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/shared/response"
	"feature-voting-backend/pkg/container"
)

// startServices performs health checks and starts the probe endpoint
func startServices(c *container.Container) error {
	log.Info().Msg("Feature Voting Worker starting...")

	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Database", c.Health.HealthCheck},
		{"Redis", func(ctx context.Context) error {
			if c.Redis == nil {
				return fmt.Errorf("redis is required by the worker")
			}
			return c.Redis.HealthCheck(ctx)
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("Health check OK")
	}

	go startHealthCheckServer(c)
	return nil
}

// startHealthCheckServer serves /health and /ready for orchestration probes
func startHealthCheckServer(c *container.Container) {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		response.OK(ctx, gin.H{"status": "UP", "service": "feature-voting-worker"})
	})
	router.GET("/ready", func(ctx *gin.Context) {
		if err := c.Health.HealthCheck(ctx.Request.Context()); err != nil {
			response.ErrorResponse(ctx, http.StatusServiceUnavailable, "NOT_READY", err.Error())
			return
		}
		response.OK(ctx, gin.H{"status": "READY"})
	})

	addr := ":" + c.Config.Worker.HealthPort
	log.Info().Str("addr", addr).Msg("[Health] Starting health check server")
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Error().Err(err).Msg("[Health] Failed to start")
	}
}
