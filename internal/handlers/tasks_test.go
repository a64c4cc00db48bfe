package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/handlers"
	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, caller *models.User, req services.CreateTaskRequest) (*models.Task, error) {
	args := m.Called(caller, req)
	return taskResult(args)
}

func (m *MockTaskService) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	args := m.Called(caller, id)
	return taskResult(args)
}

func (m *MockTaskService) ListOwn(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error) {
	args := m.Called(caller, filter)
	return tasksResult(args)
}

func (m *MockTaskService) ListForUser(ctx context.Context, caller *models.User, userID uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error) {
	args := m.Called(caller, userID, filter)
	return tasksResult(args)
}

func (m *MockTaskService) ListAll(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error) {
	args := m.Called(caller, filter)
	return tasksResult(args)
}

func (m *MockTaskService) Update(ctx context.Context, caller *models.User, id uuid.UUID, req services.UpdateTaskRequest) (*models.Task, error) {
	args := m.Called(caller, id, req)
	return taskResult(args)
}

func (m *MockTaskService) SetLabels(ctx context.Context, caller *models.User, id uuid.UUID, labelIDs []uuid.UUID) (*models.Task, error) {
	args := m.Called(caller, id, labelIDs)
	return taskResult(args)
}

func (m *MockTaskService) ToggleComplete(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	args := m.Called(caller, id)
	return taskResult(args)
}

func (m *MockTaskService) Delete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	return m.Called(caller, id).Error(0)
}

func taskResult(args mock.Arguments) (*models.Task, error) {
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func tasksResult(args mock.Arguments) ([]models.Task, error) {
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func setupTaskHandler() (*handlers.TaskHandler, *MockTaskService, *models.User, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService)
	user := &models.User{ID: uuid.Must(uuid.NewV4()), Username: "alice"}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		middleware.SetCurrentUser(c, user)
		c.Next()
	})

	return handler, mockService, user, router
}

func TestCreateTask(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := services.CreateTaskRequest{Title: "buy milk", Priority: "Low", Deadline: &deadline}
	mockService.On("Create", user, expected).
		Return(&models.Task{ID: uuid.Must(uuid.NewV4()), Title: "buy milk", Priority: models.PriorityLow}, nil)

	body := `{"title":"buy milk","priority":"Low","deadline":"2025-01-01T00:00:00Z"}`
	req, _ := http.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "buy milk", task.Title)
	mockService.AssertExpectations(t)
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	handler, mockService, _, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	req, _ := http.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetTaskByID_MapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{"not found", apperrors.NotFound("Task not found"), http.StatusNotFound, "Task not found"},
		{"forbidden", apperrors.Authorization("Not permitted to access this task"), http.StatusForbidden, "Not permitted to access this task"},
		{"persistence", apperrors.Persistence("failed to access task", assert.AnError), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService, user, router := setupTaskHandler()
			router.GET("/tasks/:id", handler.GetTaskByID)

			taskID := uuid.Must(uuid.NewV4())
			mockService.On("Get", user, taskID).Return(nil, tt.err)

			req, _ := http.NewRequest(http.MethodGet, "/tasks/"+taskID.String(), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.expected+`"}`, w.Body.String())
		})
	}
}

func TestGetTaskByID_InvalidUUID(t *testing.T) {
	handler, mockService, _, router := setupTaskHandler()
	router.GET("/tasks/:id", handler.GetTaskByID)

	req, _ := http.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetTasks_ParsesFilters(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.GET("/tasks", handler.GetTasks)

	filter := repositories.TaskFilter{Status: models.StatusCompleted, Priority: models.PriorityHigh}
	mockService.On("ListOwn", user, filter).Return([]models.Task{{Title: "Task 1"}, {Title: "Task 2"}}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/tasks?status=completed&priority=high", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 2)

	req, _ = http.NewRequest(http.MethodGet, "/tasks?status=pending", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTasksByUserAndStatus(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.GET("/tasks/user/:user_id/status/:status", handler.GetTasksByUserAndStatus)

	owner := uuid.Must(uuid.NewV4())
	mockService.On("ListForUser", user, owner, repositories.TaskFilter{Status: models.StatusInProgress}).
		Return(nil, apperrors.Authorization("Not permitted to access this task"))

	req, _ := http.NewRequest(http.MethodGet, "/tasks/user/"+owner.String()+"/status/in_progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertExpectations(t)
}

func TestUpdateTask(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.PATCH("/tasks/:id", handler.UpdateTask)

	taskID := uuid.Must(uuid.NewV4())
	status := "completed"
	mockService.On("Update", user, taskID, services.UpdateTaskRequest{Status: &status}).
		Return(&models.Task{ID: taskID, Status: models.StatusCompleted}, nil)

	req, _ := http.NewRequest(http.MethodPatch, "/tasks/"+taskID.String(), bytes.NewBufferString(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestToggleTask(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.PATCH("/tasks/:id/toggle", handler.ToggleTask)

	taskID := uuid.Must(uuid.NewV4())
	mockService.On("ToggleComplete", user, taskID).Return(&models.Task{ID: taskID, Status: models.StatusCompleted}, nil)

	req, _ := http.NewRequest(http.MethodPatch, "/tasks/"+taskID.String()+"/toggle", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetTaskLabels(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.PUT("/tasks/:id/labels", handler.SetTaskLabels)

	taskID := uuid.Must(uuid.NewV4())
	labelID := uuid.Must(uuid.NewV4())
	mockService.On("SetLabels", user, taskID, []uuid.UUID{labelID}).
		Return(nil, apperrors.Validation("label "+labelID.String()+" does not exist"))

	req, _ := http.NewRequest(http.MethodPut, "/tasks/"+taskID.String()+"/labels",
		bytes.NewBufferString(`{"label_ids":["`+labelID.String()+`"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), labelID.String())
}

func TestDeleteTask(t *testing.T) {
	handler, mockService, user, router := setupTaskHandler()
	router.DELETE("/tasks/:id", handler.DeleteTask)

	taskID := uuid.Must(uuid.NewV4())
	mockService.On("Delete", user, taskID).Return(nil)

	req, _ := http.NewRequest(http.MethodDelete, "/tasks/"+taskID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTaskHandler_WithoutAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewTaskHandler(&MockTaskService{})
	router := gin.New()
	router.GET("/tasks", handler.GetTasks)

	req, _ := http.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}
