package logger

import (
	"context"
	"errors"
	"testing"
)

func TestLevelHelpersLogWithContextFields(t *testing.T) {
	Init(Options{Level: "debug", Format: "json", Service: "test"})

	ctx := WithFields(context.Background(), map[string]any{"request_id": "r-1"})

	Debug(ctx, "debug line", map[string]any{"k": "v"})
	Info(ctx, "info line", nil)
	Warn(ctx, "warn line", map[string]any{"count": 2})
	Error(ctx, "error line", errors.New("boom"), nil)
}

func TestPlainContextFallsBackToBaseLogger(t *testing.T) {
	Init(Options{Level: "info", Format: "console"})

	Info(context.Background(), "no fields bound", nil)
}
