package main

import (
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/infrastructure/queue"
	"feature-voting-backend/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler creates the scheduler, registers cron jobs and starts it
func setupScheduler(c *container.Container) *asynqScheduler {
	redisCfg := c.Config.Redis
	scheduler := queue.NewScheduler(queue.RedisOpt(redisCfg.Host, redisCfg.Password, redisCfg.DB))

	if err := scheduler.RegisterReconcileJob(c.Config.Worker.ReconcileCron); err != nil {
		log.Fatal().Err(err).Msg("[Scheduler] Failed to register")
	}

	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("[Scheduler] Failed to start")
	}
	log.Info().Msg("[Scheduler] Started")

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Info().Msg("[Scheduler] Stopped")
}
