package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/infrastructure/queue"
	"feature-voting-backend/internal/shared"
	"feature-voting-backend/pkg/container"
)

// asynqServer wraps asynq.Server with additional functionality
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and starts the Asynq server
func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	redisCfg := c.Config.Redis
	srv := asynq.NewServer(
		queue.RedisOpt(redisCfg.Host, redisCfg.Password, redisCfg.DB),
		asynq.Config{
			Queues: map[string]int{
				shared.QueueMaintenance: 1,
			},
			Concurrency:     c.Config.Worker.Concurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Msg("[Asynq] Task failed")
			}),
		},
	)

	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("[Worker] Failed to start")
	}
	log.Info().Int("concurrency", c.Config.Worker.Concurrency).Msg("[Worker] Started")

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks up to ShutdownTimeout
func (s *asynqServer) Shutdown() {
	log.Info().Msg("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Info().Msg("[Worker] Stopped")
}
