package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type CreateTaskRequest struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description" validate:"max=1000"`
	Priority    string      `json:"priority" validate:"required"`
	Deadline    *time.Time  `json:"deadline"`
	Status      string      `json:"status"`
	LabelIDs    []uuid.UUID `json:"label_ids"`
}

// UpdateTaskRequest is a partial update; nil fields are left alone.
type UpdateTaskRequest struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=1000"`
	Priority    *string      `json:"priority"`
	Deadline    *time.Time   `json:"deadline"`
	Status      *string      `json:"status"`
	LabelIDs    *[]uuid.UUID `json:"label_ids"`
}

type TaskService interface {
	Create(ctx context.Context, caller *models.User, req CreateTaskRequest) (*models.Task, error)
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error)
	ListOwn(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error)
	ListForUser(ctx context.Context, caller *models.User, userID uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error)
	ListAll(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateTaskRequest) (*models.Task, error)
	SetLabels(ctx context.Context, caller *models.User, id uuid.UUID, labelIDs []uuid.UUID) (*models.Task, error)
	ToggleComplete(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, caller *models.User, id uuid.UUID) error
}

type TaskServiceImpl struct {
	tasks  repositories.TaskStore
	labels repositories.LabelStore
	policy *AccessPolicy
	now    func() time.Time
}

func NewTaskService(tasks repositories.TaskStore, labels repositories.LabelStore, policy *AccessPolicy) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, labels: labels, policy: policy, now: time.Now}
}

// ParseTaskFilter turns optional query values into a filter.
func ParseTaskFilter(status, priority string) (repositories.TaskFilter, error) {
	var filter repositories.TaskFilter
	if status != "" {
		parsed, ok := models.ParseTaskStatus(status)
		if !ok {
			return filter, invalidStatus()
		}
		filter.Status = parsed
	}
	if priority != "" {
		parsed, ok := models.ParsePriority(priority)
		if !ok {
			return filter, invalidPriority()
		}
		filter.Priority = parsed
	}
	return filter, nil
}

func invalidStatus() error {
	return apperrors.Validation("status must be one of todo, in_progress, completed, cancelled")
}

func invalidPriority() error {
	return apperrors.Validation("priority must be one of High, Medium, Low")
}

func (s *TaskServiceImpl) Create(ctx context.Context, caller *models.User, req CreateTaskRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return nil, invalidPriority()
	}

	status := models.StatusTodo
	if req.Status != "" {
		if status, ok = models.ParseTaskStatus(req.Status); !ok {
			return nil, invalidStatus()
		}
	}

	labelIDs, err := s.ownedLabels(ctx, caller, req.LabelIDs)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      caller.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Deadline:    utcPtr(req.Deadline),
		LabelIDs:    labelIDs,
		CreatedAt:   s.now().UTC(),
	}
	task.SetStatus(status)

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	return s.load(ctx, caller, id, ActionRead)
}

func (s *TaskServiceImpl) ListOwn(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error) {
	filter.UserID = &caller.ID
	return s.tasks.Find(ctx, filter)
}

// ListForUser lists userID's tasks. Only that user or an admin may call it.
func (s *TaskServiceImpl) ListForUser(ctx context.Context, caller *models.User, userID uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error) {
	res := Resource{Type: ResourceTask, OwnerID: userID, Found: true}
	if err := s.policy.Authorize(ctx, caller, res, ActionList); err != nil {
		return nil, err
	}
	filter.UserID = &userID
	return s.tasks.Find(ctx, filter)
}

func (s *TaskServiceImpl) ListAll(ctx context.Context, caller *models.User, filter repositories.TaskFilter) ([]models.Task, error) {
	if err := s.policy.AuthorizeAdmin(ctx, caller, ResourceTask, ActionList); err != nil {
		return nil, err
	}
	filter.UserID = nil
	return s.tasks.Find(ctx, filter)
}

func (s *TaskServiceImpl) Update(ctx context.Context, caller *models.User, id uuid.UUID, req UpdateTaskRequest) (*models.Task, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Validation("title is required")
		}
		req.Title = &title
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		priority, ok := models.ParsePriority(*req.Priority)
		if !ok {
			return nil, invalidPriority()
		}
		task.Priority = priority
	}
	if req.Deadline != nil {
		task.Deadline = utcPtr(req.Deadline)
	}
	if req.LabelIDs != nil {
		labelIDs, err := s.ownedLabels(ctx, caller, *req.LabelIDs)
		if err != nil {
			return nil, err
		}
		task.LabelIDs = labelIDs
	}
	// Status goes last so a completion in the same patch sees the new deadline.
	if req.Status != nil {
		status, ok := models.ParseTaskStatus(*req.Status)
		if !ok {
			return nil, invalidStatus()
		}
		task.SetStatus(status)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) SetLabels(ctx context.Context, caller *models.User, id uuid.UUID, labelIDs []uuid.UUID) (*models.Task, error) {
	task, err := s.load(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownedLabels(ctx, caller, labelIDs)
	if err != nil {
		return nil, err
	}
	task.LabelIDs = owned

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleComplete flips between completed and todo. completed_at survives the flip back.
func (s *TaskServiceImpl) ToggleComplete(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.load(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if task.Status == models.StatusCompleted {
		task.SetStatus(models.StatusTodo)
	} else {
		task.SetStatus(models.StatusCompleted)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	if _, err := s.load(ctx, caller, id, ActionDelete); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

func (s *TaskServiceImpl) load(ctx context.Context, caller *models.User, id uuid.UUID, action Action) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := Resource{Type: ResourceTask, ID: id, Found: task != nil}
	if task != nil {
		res.OwnerID = task.UserID
	}
	if err := s.policy.Authorize(ctx, caller, res, action); err != nil {
		return nil, err
	}
	return task, nil
}

// ownedLabels dedupes ids and checks that every one names a label owned by caller.
func (s *TaskServiceImpl) ownedLabels(ctx context.Context, caller *models.User, ids []uuid.UUID) (models.LabelIDs, error) {
	unique := models.NewLabelIDs(ids)
	if len(unique) == 0 {
		return unique, nil
	}

	labels, err := s.labels.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	owners := make(map[uuid.UUID]uuid.UUID, len(labels))
	for _, label := range labels {
		owners[label.ID] = label.UserID
	}
	for _, id := range unique {
		owner, ok := owners[id]
		if !ok || owner != caller.ID {
			return nil, apperrors.Validation(fmt.Sprintf("label %s does not exist", id))
		}
	}
	return unique, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
