package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rms-platform/rms-access/internal/auth"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionAudit persists one session lifecycle event.
	TaskTypeSessionAudit = "auth:session_audit"
	// TaskTypeSessionAuditPrune removes audit events past retention.
	TaskTypeSessionAuditPrune = "auth:session_audit_prune"
)

// SessionAuditPayload is the wire form of auth.AuditEvent.
type SessionAuditPayload = auth.AuditEvent

// SessionAuditPrunePayload carries the retention window.
type SessionAuditPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSessionAuditTask constructs an Asynq task for one audit event.
func NewSessionAuditTask(payload SessionAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionAudit, data, asynq.MaxRetry(5), asynq.Queue(QueueDefault)), nil
}

// NewSessionAuditPruneTask constructs the retention task.
func NewSessionAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(SessionAuditPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionAuditPrune, data), nil
}
