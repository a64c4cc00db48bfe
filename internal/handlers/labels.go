package handlers

import (
	"net/http"

	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type LabelHandler struct {
	labelService services.LabelService
}

func NewLabelHandler(labelService services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

func (h *LabelHandler) CreateLabel(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	var req services.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	label, err := h.labelService.Create(c.Request.Context(), user, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, label)
}

func (h *LabelHandler) GetLabels(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	labels, err := h.labelService.ListOwn(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *LabelHandler) GetLabelsByUser(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	labels, err := h.labelService.ListForUser(c.Request.Context(), user, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *LabelHandler) ListAllLabels(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	labels, err := h.labelService.ListAll(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *LabelHandler) GetLabelByID(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	label, err := h.labelService.Get(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

func (h *LabelHandler) UpdateLabel(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	label, err := h.labelService.Update(c.Request.Context(), user, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.labelService.Delete(c.Request.Context(), user, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
