// Package testing switches the process into test mode when blank-imported by
// a _test.go file, so handlers and entrypoints skip network side effects.
package testing

import (
	"os"
	"sync"
)

// TestModeEnv is read by app.InTestMode.
const TestModeEnv = "RMS_ACCESS_TEST_MODE"

// defaults are applied only when the variable is unset.
var defaults = map[string]string{
	TestModeEnv:   "1",
	"BACKEND_URL": "http://127.0.0.1:0",
}

var once sync.Once

// Enable applies the test defaults once per process.
func Enable() {
	once.Do(func() {
		for key, value := range defaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	Enable()
}
