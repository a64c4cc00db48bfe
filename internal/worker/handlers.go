package worker

import (
	"context"
	"log"
	"time"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
)

// AuditLogHandler persists access decisions recorded by QueueRecorder.
func AuditLogHandler(store repositories.AuditStore) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var entry models.AuditLog
		if err := job.Decode(&entry); err != nil {
			return err
		}
		return store.Create(ctx, &entry)
	}
}

type sessionSweeper interface {
	ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionCleanupHandler clears refresh tokens that have expired, moving those users from
// an expired session back to no session.
func SessionCleanupHandler(users sessionSweeper, now func() time.Time) JobHandler {
	return func(ctx context.Context, job *Job) error {
		cleared, err := users.ClearExpiredSessions(ctx, now())
		if err != nil {
			return err
		}
		if cleared > 0 {
			log.Printf("Session cleanup cleared %d expired refresh tokens", cleared)
		}
		return nil
	}
}

// QueueRecorder hands audit entries to the worker instead of writing them inline.
type QueueRecorder struct {
	jobs *JobQueue
}

func NewQueueRecorder(jobs *JobQueue) *QueueRecorder {
	return &QueueRecorder{jobs: jobs}
}

// Record never fails the caller; an entry that cannot be queued is logged and dropped.
func (r *QueueRecorder) Record(ctx context.Context, entry models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	if err := r.jobs.Enqueue(ctx, QueueAudit, JobTypeAuditLog, entry); err != nil {
		log.Printf("Failed to queue audit entry for user %s: %v", entry.UserID, err)
	}
}
