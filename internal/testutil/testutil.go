package testutil

import (
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

// TestLogger returns a quiet logger for use in tests.
func TestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}
