package main

import (
	"github.com/hibiken/asynq"

	voteJob "feature-voting-backend/internal/domains/vote/job"
	"feature-voting-backend/internal/shared"
	"feature-voting-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reconcileVotes *voteJob.ReconcileHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reconcileVotes: voteJob.NewReconcileHandler(c.FeatureRepo, c.VoteService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Maintenance tasks
	mux.HandleFunc(shared.TypeReconcileVotes, h.reconcileVotes.ProcessTask)
}
