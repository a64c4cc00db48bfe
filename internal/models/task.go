package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts any casing and returns the canonical value.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"size:1000"`
	Priority    Priority   `json:"priority" gorm:"size:10;not null;index"`
	Deadline    *time.Time `json:"deadline" gorm:"index"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:'todo';index"`
	LabelIDs    LabelIDs   `json:"label_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.LabelIDs == nil {
		t.LabelIDs = LabelIDs{}
	}
	return nil
}

// SetStatus moves the task to status. The first transition to completed stamps
// CompletedAt with the deadline, or the creation time when there is none; it is never
// changed afterwards.
func (t *Task) SetStatus(status TaskStatus) {
	if status == StatusCompleted && t.CompletedAt == nil {
		stamp := t.CreatedAt
		if t.Deadline != nil {
			stamp = *t.Deadline
		}
		t.CompletedAt = &stamp
	}
	t.Status = status
}

// LabelIDs is stored as a JSON array so that deleting a label leaves task rows untouched.
type LabelIDs []uuid.UUID

// NewLabelIDs collapses duplicates while keeping first-seen order.
func NewLabelIDs(ids []uuid.UUID) LabelIDs {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make(LabelIDs, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (LabelIDs) GormDataType() string {
	return "text"
}

func (l LabelIDs) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *LabelIDs) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = LabelIDs{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported label_ids column type %T", value)
	}

	if len(data) == 0 {
		*l = LabelIDs{}
		return nil
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("failed to decode label_ids: %w", err)
	}
	*l = LabelIDs(ids)
	return nil
}

func (l LabelIDs) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]uuid.UUID(l))
}

func (l LabelIDs) Contains(id uuid.UUID) bool {
	for _, existing := range l {
		if existing == id {
			return true
		}
	}
	return false
}
