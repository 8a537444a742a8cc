package handler

import (
	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/domains/vote/model"
	"feature-voting-backend/internal/domains/vote/service"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/middleware"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/internal/shared/response"
	"feature-voting-backend/internal/shared/utils"
)

// =====================================================
// VOTE HANDLER
// =====================================================

type VoteHandler struct {
	voteService service.ServiceInterface
}

func NewVoteHandler(voteService service.ServiceInterface) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// RecountResponse is the body of a recount
type RecountResponse struct {
	Message   string `json:"message"`
	Previous  int    `json:"previous"`
	VoteCount int    `json:"vote_count"`
}

func callerAndPathID(c *gin.Context) (int64, int64, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(apperror.NewUnauthenticated("Authentication required"))
		return 0, 0, false
	}
	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return 0, 0, false
	}
	return userID, id, true
}

func voteMessage(message string, result *model.Result) response.Message {
	count := result.VoteCount
	return response.Message{Message: message, VoteCount: &count}
}

// =====================================================
// FEATURE VOTE ENDPOINTS
// =====================================================

// CastVote votes for a feature as the caller
// POST /api/v1/features/:id/vote
func (h *VoteHandler) CastVote(c *gin.Context) {
	userID, featureID, ok := callerAndPathID(c)
	if !ok {
		return
	}

	result, err := h.voteService.CastVote(c.Request.Context(), userID, featureID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Created(c, voteMessage(model.MessageVoteAdded, result))
}

// RetractVote removes the caller's vote for a feature
// DELETE /api/v1/features/:id/vote
func (h *VoteHandler) RetractVote(c *gin.Context) {
	userID, featureID, ok := callerAndPathID(c)
	if !ok {
		return
	}

	result, err := h.voteService.RetractVote(c.Request.Context(), userID, featureID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, voteMessage(model.MessageVoteRemoved, result))
}

// ListFeatureVotes lists the votes of one feature
// GET /api/v1/features/:id/votes
func (h *VoteHandler) ListFeatureVotes(c *gin.Context) {
	featureID, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	votes, err := h.voteService.ListFeatureVotes(c.Request.Context(), featureID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, votes)
}

// RecountVotes recomputes a feature counter from its votes
// POST /api/v1/features/:id/recount
func (h *VoteHandler) RecountVotes(c *gin.Context) {
	_, featureID, ok := callerAndPathID(c)
	if !ok {
		return
	}

	recount, err := h.voteService.RecountVotes(c.Request.Context(), featureID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, RecountResponse{
		Message:   "Vote count recalculated",
		Previous:  recount.Previous,
		VoteCount: recount.VoteCount,
	})
}

// =====================================================
// VOTE COLLECTION ENDPOINTS
// =====================================================

// ListVotes lists all votes
// GET /api/v1/votes?skip=0&limit=100
func (h *VoteHandler) ListVotes(c *gin.Context) {
	window, err := pagination.ParseWindow(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	votes, err := h.voteService.ListVotes(c.Request.Context(), window)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, votes)
}

// RetractVoteByID removes one of the caller's votes by id
// DELETE /api/v1/votes/:id
func (h *VoteHandler) RetractVoteByID(c *gin.Context) {
	userID, voteID, ok := callerAndPathID(c)
	if !ok {
		return
	}

	result, err := h.voteService.RetractVoteByID(c.Request.Context(), userID, voteID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, voteMessage(model.MessageVoteRemoved, result))
}
