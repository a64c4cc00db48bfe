package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// CachedTaskStore reads single tasks through a cache and evicts them on every write.
// Listings always go to the database. Cache failures are logged and never fail a call.
type CachedTaskStore struct {
	repositories.TaskStore
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedTaskStore(store repositories.TaskStore, c cache.Cache, ttl time.Duration) *CachedTaskStore {
	return &CachedTaskStore{TaskStore: store, cache: c, ttl: ttl}
}

func taskCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id.String())
}

func (s *CachedTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(ctx, taskCacheKey(id), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Task cache read failed for %s: %v", id, err)
	}

	task, err := s.TaskStore.GetByID(ctx, id)
	if err != nil || task == nil {
		return task, err
	}

	if err := s.cache.Set(ctx, taskCacheKey(id), task, s.ttl); err != nil {
		log.Printf("Task cache write failed for %s: %v", id, err)
	}
	return task, nil
}

func (s *CachedTaskStore) Save(ctx context.Context, task *models.Task) error {
	s.evict(ctx, task.ID)
	if err := s.TaskStore.Save(ctx, task); err != nil {
		return err
	}
	s.evict(ctx, task.ID)
	return nil
}

func (s *CachedTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.TaskStore.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *CachedTaskStore) evict(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, taskCacheKey(id)); err != nil {
		log.Printf("Task cache eviction failed for %s: %v", id, err)
	}
}

// CachedLabelStore is the label counterpart of CachedTaskStore.
type CachedLabelStore struct {
	repositories.LabelStore
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedLabelStore(store repositories.LabelStore, c cache.Cache, ttl time.Duration) *CachedLabelStore {
	return &CachedLabelStore{LabelStore: store, cache: c, ttl: ttl}
}

func labelCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("label:%s", id.String())
}

func (s *CachedLabelStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Label, error) {
	var cached models.Label
	if err := s.cache.Get(ctx, labelCacheKey(id), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Label cache read failed for %s: %v", id, err)
	}

	label, err := s.LabelStore.GetByID(ctx, id)
	if err != nil || label == nil {
		return label, err
	}

	if err := s.cache.Set(ctx, labelCacheKey(id), label, s.ttl); err != nil {
		log.Printf("Label cache write failed for %s: %v", id, err)
	}
	return label, nil
}

func (s *CachedLabelStore) Save(ctx context.Context, label *models.Label) error {
	s.evict(ctx, label.ID)
	if err := s.LabelStore.Save(ctx, label); err != nil {
		return err
	}
	s.evict(ctx, label.ID)
	return nil
}

func (s *CachedLabelStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.LabelStore.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *CachedLabelStore) evict(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, labelCacheKey(id)); err != nil {
		log.Printf("Label cache eviction failed for %s: %v", id, err)
	}
}
