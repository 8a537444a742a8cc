package handler

import (
	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/domains/user/model"
	"feature-voting-backend/internal/domains/user/service"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/middleware"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/internal/shared/response"
	"feature-voting-backend/internal/shared/utils"
)

// =====================================================
// USER HANDLER
// =====================================================

type UserHandler struct {
	userService service.ServiceInterface
}

func NewUserHandler(userService service.ServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser registers a user
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := utils.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Created(c, user)
}

// ListUsers lists users by id
// GET /api/v1/users?skip=0&limit=100
func (h *UserHandler) ListUsers(c *gin.Context) {
	window, err := pagination.ParseWindow(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), window)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, users)
}

// GetUser returns a single user
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, user)
}

// DeleteUser removes a user, their votes and their features.
// Callers may only delete their own account.
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(apperror.NewUnauthenticated("Authentication required"))
		return
	}

	id, err := utils.PathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if callerID != id {
		_ = c.Error(apperror.NewForbidden("Users can only delete their own account"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, response.Message{Message: "User deleted successfully"})
}
