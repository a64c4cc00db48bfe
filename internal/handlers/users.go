package handlers

import (
	"net/http"

	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

type AssignRoleRequest struct {
	Role string `json:"role"`
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUser serves a profile to its owner or to an admin.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	target, err := h.userService.Get(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(target))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(updated))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.userService.AssignRole(c.Request.Context(), user, id, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": NewUserResponse(updated), "roles": updated.GetRoleNames()})
}
