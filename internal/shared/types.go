package shared

// Background task types and queues shared by cmd/api and cmd/worker
const (
	TypeReconcileVotes = "vote:reconcile"

	QueueMaintenance = "maintenance"
)

// ReconcileVotesPayload selects the features to recount; FeatureID 0 means every feature
type ReconcileVotesPayload struct {
	FeatureID int64 `json:"feature_id,omitempty"`
}
