package repositories

import (
	"context"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// LabelRepository relies on the idx_labels_user_name unique index for per-owner name
// uniqueness; a losing concurrent insert surfaces as a conflict.
type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Create(ctx context.Context, label *models.Label) error {
	return translate(r.db.WithContext(ctx).Create(label).Error, "label")
}

func (r *LabelRepository) Save(ctx context.Context, label *models.Label) error {
	return translate(r.db.WithContext(ctx).Save(label).Error, "label")
}

func (r *LabelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Label{})
	if result.Error != nil {
		return translate(result.Error, "label")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("label not found")
	}
	return nil
}

// GetByID returns (nil, nil) when the label does not exist.
func (r *LabelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Label, error) {
	return firstOrNil[models.Label](r.db.WithContext(ctx).Where("id = ?", id), "label")
}

func (r *LabelRepository) Find(ctx context.Context, filter LabelFilter) ([]models.Label, error) {
	query := r.db.WithContext(ctx).Model(&models.Label{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	labels := []models.Label{}
	if err := query.Order("name ASC").Find(&labels).Error; err != nil {
		return nil, translate(err, "label")
	}
	return labels, nil
}

func (r *LabelRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Label, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", ownerID, name)
	return firstOrNil[models.Label](query, "label")
}

func (r *LabelRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Label, error) {
	labels := []models.Label{}
	if len(ids) == 0 {
		return labels, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&labels).Error; err != nil {
		return nil, translate(err, "label")
	}
	return labels, nil
}
