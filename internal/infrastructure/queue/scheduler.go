package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/shared"
)

// RedisOpt builds the asynq connection options from the shared Redis settings
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// NewReconcileVotesTask builds a reconciliation task for one feature, or all with featureID 0
func NewReconcileVotesTask(featureID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(shared.ReconcileVotesPayload{FeatureID: featureID})
	if err != nil {
		return nil, fmt.Errorf("marshal reconcile payload: %w", err)
	}
	return asynq.NewTask(shared.TypeReconcileVotes, payload,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	), nil
}

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(opt asynq.RedisClientOpt) *Scheduler {
	return &Scheduler{
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		}),
	}
}

// ================================================
// JOB: Reconcile vote counters
// ================================================

// RegisterReconcileJob recounts every feature on the given cron spec.
// An empty spec leaves the job unregistered.
func (s *Scheduler) RegisterReconcileJob(cronSpec string) error {
	if cronSpec == "" {
		log.Info().Msg("[Scheduler] Vote reconciliation disabled")
		return nil
	}

	task, err := NewReconcileVotesTask(0)
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(cronSpec, task)
	if err != nil {
		return fmt.Errorf("register %s: %w", shared.TypeReconcileVotes, err)
	}

	log.Info().Str("cron", cronSpec).Str("entry_id", entryID).Msg("[Scheduler] Registered vote reconciliation")
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
