package app

import (
	"os"
	"strconv"
)

// TestModeEnv marks processes started under go test. Binaries return before
// touching Postgres or Redis when it holds a true value.
const TestModeEnv = "CLASSHUB_TEST_MODE"

// InTestMode reports whether TestModeEnv parses as true ("1", "true", "T").
// It is read on every call so tests can toggle it with t.Setenv.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
