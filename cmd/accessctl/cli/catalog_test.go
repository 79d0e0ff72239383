package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rms-platform/rms-access/internal/platform/cache"
	"github.com/rms-platform/rms-access/jobs"
)

func TestWriteCatalogYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, "yaml"))

	var export CatalogExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &export))
	require.Len(t, export.Roles, 7)
	assert.Equal(t, "ADMIN", export.Roles[0].Role)
	assert.Equal(t, "Administrator", export.Roles[0].Name)
	assert.True(t, export.Roles[0].Internal)
	assert.Len(t, export.Roles[0].Permissions, len(export.Permissions))

	candidate := export.Roles[6]
	assert.Equal(t, "CANDIDATE", candidate.Role)
	assert.False(t, candidate.Internal)
	assert.Empty(t, candidate.Permissions)
}

func TestWriteCatalogJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, "JSON"))

	var export CatalogExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Contains(t, export.Permissions, "user:manage_roles")
	assert.Equal(t, BuildCatalogExport(), export)
}

func TestWriteCatalogRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCatalog(&buf, "toml"))
	assert.Zero(t, buf.Len())
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		roles       []string
		permissions []string
		requireAll  bool
		allowed     bool
	}{
		{"recruiter creates jobs", []string{"recruiter"}, []string{"job:create"}, false, true},
		{"viewer any of create or view", []string{"VIEWER"}, []string{"job:create", "job:view"}, false, true},
		{"viewer all of create and view", []string{"VIEWER"}, []string{"job:create", "job:view"}, true, false},
		{"union across roles", []string{"REVIEWER", "INTERVIEWER"}, []string{"application:review", "interview:provide_feedback"}, true, true},
		{"candidate holds nothing", []string{"CANDIDATE"}, []string{"job:view"}, false, false},
		{"unknown role grants nothing", []string{"SUPERUSER"}, []string{"job:view"}, false, false},
		{"no permission named", []string{"ADMIN"}, nil, false, false},
		{"blank permission ignored", []string{"ADMIN"}, []string{" "}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(tt.roles, tt.permissions, tt.requireAll)
			assert.Equal(t, tt.allowed, result.Allowed)
			assert.Equal(t, tt.requireAll, result.RequireAll)
		})
	}
}

func TestCheckCanonicalisesRoles(t *testing.T) {
	result := Check([]string{" role_hr ", "HR"}, []string{"job:edit"}, false)
	assert.Equal(t, []string{"HR"}, result.Roles)
	assert.True(t, result.Allowed)
}

func TestBuildTask(t *testing.T) {
	task, err := BuildTask("prune", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskTypeSessionAuditPrune, task.Type())

	var payload jobs.SessionAuditPrunePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 24*time.Hour, payload.Retention)

	_, err = BuildTask(jobs.TaskTypeSessionAuditPrune, 0)
	assert.Error(t, err)
	_, err = BuildTask("gl_integrity", time.Hour)
	assert.Error(t, err)
}

func TestRedisOptionsFollowWorkerEnvironment(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("REDIS_DB", "2")

	opts, err := RedisOptions("")
	require.NoError(t, err)
	asynqOpts := opts.Asynq()
	assert.Equal(t, "redis.internal:6380", asynqOpts.Addr)
	assert.Equal(t, "s3cret", asynqOpts.Password)
	assert.Equal(t, 2, asynqOpts.DB)

	opts, err = RedisOptions("127.0.0.1:7000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	t.Setenv("REDIS_DB", "two")
	_, err = RedisOptions("")
	assert.Error(t, err)
}

func TestNewJobsCLIRequiresAddress(t *testing.T) {
	_, err := NewJobsCLI(cache.Options{})
	assert.Error(t, err)

	var c *JobsCLI
	_, err = c.Trigger(context.Background(), "prune", time.Hour)
	assert.Error(t, err)
}
