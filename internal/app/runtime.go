package app

import "os"

const testModeEnv = "MESA_TEST_MODE"

// InTestMode reports whether the process should skip runtime side effects.
// Test binaries flip the flag by importing internal/testing/guard.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
