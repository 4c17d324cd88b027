// Package testing switches the process into test mode when imported by a
// test binary, so cmd entrypoints and services skip runtime side effects.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

// Enable sets the test mode flags. It is safe to call more than once.
func Enable() {
	once.Do(func() {
		_ = os.Setenv("SELLAPP_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	Enable()
}
