// Package worker runs background jobs off a redis list per queue. Delayed and retried
// jobs wait in a sorted set until they are due.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeAuditLog       JobType = "audit_log"
	JobTypeSessionCleanup JobType = "session_cleanup"
)

const (
	QueueDefault     = "default"
	QueueAudit       = "audit"
	QueueMaintenance = "maintenance"

	keyPrefix    = "jobs:"
	delayedKey   = keyPrefix + "delayed"
	deadKey      = keyPrefix + "dead"
	defaultTries = 3
)

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

// Decode unmarshals the job payload into dest.
func (j *Job) Decode(dest interface{}) error {
	if err := json.Unmarshal(j.Payload, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

type JobHandler func(ctx context.Context, job *Job) error

func queueKey(queue string) string {
	return keyPrefix + queue
}

type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	jobTimeout   time.Duration
	retryBase    time.Duration
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	now          func() time.Time
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
	// RetryBase is the first retry delay; each further attempt doubles it.
	RetryBase time.Duration
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryBase <= 0 {
		config.RetryBase = time.Minute
	}
	if len(config.Queues) == 0 {
		config.Queues = []string{QueueDefault}
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		pollInterval: config.PollInterval,
		jobTimeout:   30 * time.Second,
		retryBase:    config.RetryBase,
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches concurrency consumers plus one goroutine that promotes due delayed jobs.
func (w *Worker) Start(concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	log.Printf("Starting worker with %d goroutines on queues %v", concurrency, w.queues)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}

	w.wg.Add(1)
	go w.promoteLoop()
}

// Every enqueues a job of jobType on queue each interval until Stop.
func (w *Worker) Every(interval time.Duration, queue string, jobType JobType, payload interface{}) {
	jobs := NewJobQueue(w.client)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				if err := jobs.Enqueue(w.ctx, queue, jobType, payload); err != nil && w.ctx.Err() == nil {
					log.Printf("Failed to schedule %s job: %v", jobType, err)
				}
			}
		}
	}()
}

func (w *Worker) Stop() {
	log.Println("Stopping worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNextJob(); err != nil && w.ctx.Err() == nil {
				log.Printf("Error processing job: %v", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) promoteLoop() {
	defer w.wg.Done()

	for {
		if _, err := w.promoteDue(w.ctx); err != nil && w.ctx.Err() == nil {
			log.Printf("Error promoting delayed jobs: %v", err)
		}
		if !w.sleep(w.pollInterval) {
			return
		}
	}
}

// sleep waits for d and reports false if the worker was stopped meanwhile.
func (w *Worker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) processNextJob() error {
	keys := make([]string, len(w.queues))
	for i, q := range w.queues {
		keys[i] = queueKey(q)
	}

	result, err := w.client.BLPop(w.ctx, w.pollInterval, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.jobTimeout)
	defer cancel()

	err := handler(ctx, job)
	if err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			log.Printf("Job %s failed (attempt %d/%d), retrying: %v",
				job.ID, job.Attempts, job.MaxTries, err)
			return w.retryJob(job)
		}

		log.Printf("Job %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, err)
		return w.moveToDeadQueue(job, err)
	}

	return nil
}

func (w *Worker) retryJob(job *Job) error {
	delay := w.retryBase * time.Duration(1<<(job.Attempts-1))
	job.ProcessAt = w.now().Add(delay)
	return schedule(w.ctx, w.client, job)
}

// promoteDue moves every delayed job whose time has come onto its queue.
func (w *Worker) promoteDue(ctx context.Context) (int, error) {
	due, err := w.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", w.now().UnixMilli()),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, data := range due {
		// ZRem decides which promoter owns the job when several workers race.
		removed, err := w.client.ZRem(ctx, delayedKey, data).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			log.Printf("Dropping undecodable delayed job: %v", err)
			continue
		}
		if err := w.client.RPush(ctx, queueKey(job.Queue), data).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    w.now().UTC(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, deadKey, deadJobData).Err()
}

func schedule(ctx context.Context, client *redis.Client, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return client.ZAdd(ctx, delayedKey, redis.Z{
		Score:  float64(job.ProcessAt.UnixMilli()),
		Member: jobData,
	}).Err()
}

type JobQueue struct {
	client *redis.Client
	now    func() time.Time
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload interface{}) error {
	return q.EnqueueAt(ctx, queue, jobType, payload, q.now())
}

// EnqueueAt pushes the job straight onto queue when processAt is not in the future and
// parks it in the delayed set otherwise.
func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload interface{}, processAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}

	now := q.now()
	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Queue:     queue,
		Payload:   raw,
		MaxTries:  defaultTries,
		CreatedAt: now.UTC(),
		ProcessAt: processAt.UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if processAt.After(now) {
		return schedule(ctx, q.client, job)
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.RPush(ctx, queueKey(queue), jobData).Err()
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queueKey(queue)).Result()
}

func (q *JobQueue) DelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, delayedKey).Result()
}

func (q *JobQueue) DeadSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, deadKey).Result()
}
