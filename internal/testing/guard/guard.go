// Package guard forces test mode when imported from test binaries so that
// process entry points skip runtime side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MESA_TEST_MODE") == "" {
			_ = os.Setenv("MESA_TEST_MODE", "1")
		}
	})
}
