package handler

import (
	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/feature/service"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/middleware"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/internal/shared/response"
	"feature-voting-backend/internal/shared/utils"
)

// =====================================================
// FEATURE HANDLER
// =====================================================

type FeatureHandler struct {
	featureService service.ServiceInterface
}

func NewFeatureHandler(featureService service.ServiceInterface) *FeatureHandler {
	return &FeatureHandler{featureService: featureService}
}

// CreateFeature creates a feature authored by the caller
// POST /api/v1/features
func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	// Step 1: Identity (set by RequireIdentity)
	authorID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(apperror.NewUnauthenticated("Authentication required"))
		return
	}

	// Step 2: Bind body
	var req model.CreateFeatureRequest
	if err := utils.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	// Step 3: Call service
	feature, err := h.featureService.CreateFeature(c.Request.Context(), authorID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Created(c, feature)
}

// ListFeatures lists features by vote count
// GET /api/v1/features?page=1&page_size=20
func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	params, err := pagination.ParseParams(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := h.featureService.ListFeatures(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, page)
}

// GetFeature returns one feature
// GET /api/v1/features/:id
func (h *FeatureHandler) GetFeature(c *gin.Context) {
	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	feature, err := h.featureService.GetFeature(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, feature)
}

// UpdateFeature applies a partial update
// PUT /api/v1/features/:id
func (h *FeatureHandler) UpdateFeature(c *gin.Context) {
	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateFeatureRequest
	if err := utils.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	feature, err := h.featureService.UpdateFeature(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, feature)
}

// DeleteFeature removes a feature and its votes
// DELETE /api/v1/features/:id
func (h *FeatureHandler) DeleteFeature(c *gin.Context) {
	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.featureService.DeleteFeature(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, response.Message{Message: "Feature deleted successfully"})
}
