package handlers

import (
	"net/http"

	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

type SetLabelsRequest struct {
	LabelIDs []uuid.UUID `json:"label_ids"`
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), user, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetTasks lists the caller's own tasks, optionally filtered by ?status= and ?priority=.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	filter, err := services.ParseTaskFilter(c.Query("status"), c.Query("priority"))
	if err != nil {
		writeError(c, err)
		return
	}

	tasks, err := h.taskService.ListOwn(c.Request.Context(), user, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasksByUser(c *gin.Context) {
	h.listForUser(c, "", "")
}

func (h *TaskHandler) GetTasksByUserAndStatus(c *gin.Context) {
	h.listForUser(c, c.Param("status"), "")
}

func (h *TaskHandler) GetTasksByUserAndPriority(c *gin.Context) {
	h.listForUser(c, "", c.Param("priority"))
}

func (h *TaskHandler) listForUser(c *gin.Context, status, priority string) {
	user, ok := caller(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	filter, err := services.ParseTaskFilter(status, priority)
	if err != nil {
		writeError(c, err)
		return
	}

	tasks, err := h.taskService.ListForUser(c.Request.Context(), user, userID, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ListAllTasks is the admin listing across every owner.
func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	filter, err := services.ParseTaskFilter(c.Query("status"), c.Query("priority"))
	if err != nil {
		writeError(c, err)
		return
	}

	tasks, err := h.taskService.ListAll(c.Request.Context(), user, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), user, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) SetTaskLabels(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req SetLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.taskService.SetLabels(c.Request.Context(), user, id, req.LabelIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.ToggleComplete(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), user, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
