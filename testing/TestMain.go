// Package testing prepares the process environment for package tests. Import
// it for side effects from any _test.go file that builds config or starts
// components.
package testing

import (
	"io"
	"log/slog"
	"os"
)

var defaults = map[string]string{
	"CLASSHUB_TEST_MODE": "1",
	"JWT_SECRET":         "test-secret-not-for-production",
}

func init() {
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
	if os.Getenv("CLASSHUB_TEST_LOGS") == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
}
