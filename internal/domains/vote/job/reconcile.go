package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/vote/service"
	"feature-voting-backend/internal/shared"
	"feature-voting-backend/internal/shared/apperror"
)

const listBatchSize = 200

// FeatureLister is satisfied by the feature repository
type FeatureLister interface {
	List(ctx context.Context, offset, limit int) ([]featuremodel.Feature, int, error)
}

// ReconcileHandler recounts vote counters from the vote rows
type ReconcileHandler struct {
	features FeatureLister
	votes    service.ServiceInterface
}

func NewReconcileHandler(features FeatureLister, votes service.ServiceInterface) *ReconcileHandler {
	return &ReconcileHandler{features: features, votes: votes}
}

// Report summarises one reconciliation run
type Report struct {
	Checked  int
	Repaired int
}

// ProcessTask xử lý job reconcile.
// 1. Parse payload (feature_id = 0 → all features)
// 2. Recount each feature under its row lock
// Features deleted during the run are skipped.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ReconcileVotesPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Payload hỏng → retry cũng không sửa được
			return fmt.Errorf("unmarshal reconcile payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	report, err := h.Reconcile(ctx, payload)
	if err != nil {
		return err
	}

	log.Info().
		Int64("feature_id", payload.FeatureID).
		Int("checked", report.Checked).
		Int("repaired", report.Repaired).
		Msg("Vote reconciliation finished")
	return nil
}

// Reconcile runs the recount described by payload
func (h *ReconcileHandler) Reconcile(ctx context.Context, payload shared.ReconcileVotesPayload) (Report, error) {
	ids := []int64{payload.FeatureID}
	if payload.FeatureID == 0 {
		var err error
		if ids, err = h.allFeatureIDs(ctx); err != nil {
			return Report{}, err
		}
	}

	var report Report
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		recount, err := h.votes.RecountVotes(ctx, id)
		if apperror.IsKind(err, apperror.FeatureNotFound) && payload.FeatureID == 0 {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("recount feature %d: %w", id, err)
		}

		report.Checked++
		if recount.Drifted() {
			report.Repaired++
		}
	}
	return report, nil
}

// allFeatureIDs snapshots ids first; recounts reorder the vote_count listing
func (h *ReconcileHandler) allFeatureIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for offset := 0; ; offset += listBatchSize {
		batch, total, err := h.features.List(ctx, offset, listBatchSize)
		if err != nil {
			return nil, fmt.Errorf("list features: %w", err)
		}
		for _, f := range batch {
			ids = append(ids, f.ID)
		}
		if len(batch) < listBatchSize || offset+len(batch) >= total {
			return ids, nil
		}
	}
}
