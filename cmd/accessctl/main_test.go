package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &out))
	assert.Contains(t, out.String(), "accessctl catalog")
}

func TestRunCheck(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"check", "--role", "VIEWER", "--permission", "job:create", "--permission", "job:view"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "allowed (mode=any"), out.String())

	out.Reset()
	require.NoError(t, run([]string{"check", "-r", "VIEWER", "-p", "job:create,job:view", "--all"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "denied (mode=all"), out.String())
}

func TestRunCatalogJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"catalog", "--format", "json"}, &out))
	assert.Contains(t, out.String(), `"role": "RECRUITER"`)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"migrate"}, &out))
	assert.Error(t, run([]string{"jobs"}, &out))
	assert.Error(t, run([]string{"catalog", "--bogus"}, &out))
}
