package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const testModeEnv = "RMS_ACCESS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	enabled, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(testModeEnv)))
	testModeFlag.Store(err == nil && enabled)
}

// InTestMode reports whether entrypoints should skip connecting to Redis,
// Postgres and the backend. Any strconv.ParseBool truthy value enables it.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the environment after tests change it.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
