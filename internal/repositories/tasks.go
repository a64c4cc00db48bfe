package repositories

import (
	"context"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error, "task")
}

// Save upserts by primary key.
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Save(task).Error, "task")
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return translate(result.Error, "task")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("task not found")
	}
	return nil
}

// GetByID returns (nil, nil) when the task does not exist.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return firstOrNil[models.Task](r.db.WithContext(ctx).Where("id = ?", id), "task")
}

func (r *TaskRepository) Find(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	tasks := []models.Task{}
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, translate(err, "task")
	}
	return tasks, nil
}
