package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rms-platform/rms-access/internal/auth"
	jobmetrics "github.com/rms-platform/rms-access/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SessionAuditJob persists session audit events and enforces retention.
type SessionAuditJob struct {
	Repo    auth.EventRepository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionAuditJob wires dependencies for the audit handlers.
func NewSessionAuditJob(repo auth.EventRepository, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionAuditJob {
	return &SessionAuditJob{
		Repo:    repo,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTypeSessionAudit tasks.
func (j *SessionAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("session audit: handler not configured")
	}
	var payload SessionAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.SessionID == "" || payload.Event == "" {
		j.logger(TaskTypeSessionAudit).Warn("dropping incomplete session event", slog.String("event", string(payload.Event)))
		return asynq.SkipRetry
	}
	if payload.At.IsZero() {
		payload.At = j.now()
	}

	tracker := j.metrics().Track(TaskTypeSessionAudit)
	err := j.Repo.InsertSessionEvent(ctx, payload)
	if err == nil {
		j.metrics().AddSessionEvent(string(payload.Event))
	} else {
		j.logger(TaskTypeSessionAudit).Error("persist session event",
			slog.String("session_id", payload.SessionID),
			slog.String("event", string(payload.Event)),
			slog.Any("error", err))
	}
	return tracker.End(err)
}

// HandlePrune processes TaskTypeSessionAuditPrune tasks.
func (j *SessionAuditJob) HandlePrune(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("session audit prune: handler not configured")
	}
	var payload SessionAuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeSessionAuditPrune)
	cutoff := j.now().Add(-payload.Retention)
	logger := j.logger(TaskTypeSessionAuditPrune).With(slog.Time("cutoff", cutoff))

	deleted, err := j.Repo.PruneSessionEvents(ctx, cutoff)
	if err != nil {
		logger.Error("prune session events", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddPruned(deleted)
	logger.Info("pruned session events", slog.Int64("deleted", deleted))
	return tracker.End(nil)
}

func (j *SessionAuditJob) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *SessionAuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionAuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
