package services

import (
	"context"
	"log"
	"time"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	ResourceTask  = "task"
	ResourceLabel = "label"
	ResourceUser  = "user"
)

// Resource describes the target of an access check. Found is false when the lookup came
// back empty; OwnerID is meaningless in that case.
type Resource struct {
	Type    string
	ID      uuid.UUID
	OwnerID uuid.UUID
	Found   bool
}

// AuditRecorder receives every access decision. Implementations must not block.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, models.AuditLog) {}

// RequestMeta carries transport details for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Method    string
	Path      string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AccessPolicy applies ownership scoping. Existence is checked first, so a missing target
// is a not-found and a foreign one is a forbidden. Admins may read anything; mutations are
// owner-only.
type AccessPolicy struct {
	recorder AuditRecorder
	now      func() time.Time
}

func NewAccessPolicy(recorder AuditRecorder) *AccessPolicy {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &AccessPolicy{recorder: recorder, now: time.Now}
}

func (p *AccessPolicy) Authorize(ctx context.Context, caller *models.User, res Resource, action Action) error {
	if caller == nil {
		return apperrors.InvalidCredentials()
	}

	if !res.Found {
		return apperrors.NotFound(notFoundMessage(res.Type))
	}

	switch {
	case res.OwnerID == caller.ID:
		p.record(ctx, caller, res, action, models.DecisionAllowed, "owner")
		return nil
	case adminMayRead(action) && caller.IsAdmin():
		p.record(ctx, caller, res, action, models.DecisionAllowed, "admin read")
		return nil
	}

	p.record(ctx, caller, res, action, models.DecisionDenied, "not owner")
	return apperrors.Authorization("Not permitted to access this " + res.Type)
}

// AuthorizeAdmin gates the full listings and role management.
func (p *AccessPolicy) AuthorizeAdmin(ctx context.Context, caller *models.User, resourceType string, action Action) error {
	if caller == nil {
		return apperrors.InvalidCredentials()
	}

	res := Resource{Type: resourceType, Found: true}
	if !caller.IsAdmin() {
		p.record(ctx, caller, res, action, models.DecisionDenied, "admin required")
		return apperrors.Authorization("Admin access required")
	}
	p.record(ctx, caller, res, action, models.DecisionAllowed, "admin")
	return nil
}

func adminMayRead(action Action) bool {
	return action == ActionRead || action == ActionList
}

func notFoundMessage(resourceType string) string {
	switch resourceType {
	case ResourceTask:
		return "Task not found"
	case ResourceLabel:
		return "Label not found"
	case ResourceUser:
		return "User not found"
	}
	return "Not found"
}

func (p *AccessPolicy) record(ctx context.Context, caller *models.User, res Resource, action Action, decision, reason string) {
	meta := requestMetaFrom(ctx)
	entry := models.AuditLog{
		UserID:        caller.ID,
		Action:        string(action),
		Resource:      res.Type,
		ResourceID:    res.ID,
		Decision:      decision,
		Reason:        reason,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		RequestMethod: meta.Method,
		RequestPath:   meta.Path,
		Timestamp:     p.now().UTC(),
	}
	if decision == models.DecisionDenied {
		log.Printf("Access denied: user=%s action=%s %s=%s", caller.ID, action, res.Type, res.ID)
	}
	p.recorder.Record(ctx, entry)
}
