package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rms-platform/rms-access/internal/auth"
	jobmetrics "github.com/rms-platform/rms-access/internal/jobs"
)

type memoryRepo struct {
	events []auth.AuditEvent
	cutoff time.Time
	pruned int64
	fail   error
}

func (m *memoryRepo) InsertSessionEvent(ctx context.Context, event auth.AuditEvent) error {
	if m.fail != nil {
		return m.fail
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryRepo) PruneSessionEvents(ctx context.Context, before time.Time) (int64, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	m.cutoff = before
	return m.pruned, nil
}

func newTestJob(repo auth.EventRepository, now time.Time) *SessionAuditJob {
	job := NewSessionAuditJob(repo, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return now }
	return job
}

func TestSessionAuditTaskRoundTrip(t *testing.T) {
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	task, err := NewSessionAuditTask(auth.AuditEvent{SessionID: "s1", UserID: 7, Event: auth.EventLogin, IP: "10.0.0.1", At: at})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSessionAudit, task.Type())

	repo := &memoryRepo{}
	require.NoError(t, newTestJob(repo, time.Now()).Handle(context.Background(), task))
	require.Len(t, repo.events, 1)
	assert.Equal(t, "s1", repo.events[0].SessionID)
	assert.Equal(t, int64(7), repo.events[0].UserID)
	assert.True(t, at.Equal(repo.events[0].At))
}

func TestSessionAuditStampsMissingTime(t *testing.T) {
	now := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)
	task, err := NewSessionAuditTask(auth.AuditEvent{SessionID: "s1", Event: auth.EventLogout})
	require.NoError(t, err)

	repo := &memoryRepo{}
	require.NoError(t, newTestJob(repo, now).Handle(context.Background(), task))
	assert.Equal(t, now, repo.events[0].At)
}

func TestSessionAuditSkipsBadPayloads(t *testing.T) {
	job := newTestJob(&memoryRepo{}, time.Now())

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSessionAudit, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	data, _ := json.Marshal(auth.AuditEvent{UserID: 1})
	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSessionAudit, data))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSessionAuditRetriesRepositoryFailure(t *testing.T) {
	repoErr := errors.New("connection reset")
	task, err := NewSessionAuditTask(auth.AuditEvent{SessionID: "s1", Event: auth.EventResume})
	require.NoError(t, err)

	err = newTestJob(&memoryRepo{fail: repoErr}, time.Now()).Handle(context.Background(), task)
	assert.ErrorIs(t, err, repoErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSessionAuditPrune(t *testing.T) {
	now := time.Date(2025, 5, 4, 3, 30, 0, 0, time.UTC)
	task, err := NewSessionAuditPruneTask(48 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSessionAuditPrune, task.Type())

	repo := &memoryRepo{pruned: 12}
	require.NoError(t, newTestJob(repo, now).HandlePrune(context.Background(), task))
	assert.Equal(t, now.Add(-48*time.Hour), repo.cutoff)

	zero, err := NewSessionAuditPruneTask(0)
	require.NoError(t, err)
	assert.ErrorIs(t, newTestJob(repo, now).HandlePrune(context.Background(), zero), asynq.SkipRetry)
}

func TestUnconfiguredJobFails(t *testing.T) {
	var job *SessionAuditJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSessionAudit, nil)))
	assert.Error(t, (&SessionAuditJob{}).HandlePrune(context.Background(), asynq.NewTask(TaskTypeSessionAuditPrune, nil)))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health QueueHealth
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, QueueDefault, health.Queue)
	assert.Zero(t, health.Pending)
}

func TestNewWorkerRegistersCron(t *testing.T) {
	task, err := NewSessionAuditPruneTask(time.Hour)
	require.NoError(t, err)
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Handlers:  []TaskHandler{{Type: TaskTypeSessionAudit, Handler: func(context.Context, *asynq.Task) error { return nil }}, {}},
		Cron:      []CronRegistration{{Spec: "30 3 * * *", Task: task}, {Spec: ""}},
	})
	require.NoError(t, err)
	assert.NotNil(t, worker.scheduler)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	assert.Error(t, err)
}
