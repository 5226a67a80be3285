package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToLogLevelPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown level")
		}
	}()
	ToLogLevel("verbose")
}

func TestStacktraceHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapWithStacktrace(slog.NewJSONHandler(&buf, nil)))

	err := errors.WithStack(errors.New("boom"))
	logger.Error("operation failed", ErrAttr(err))

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("output is not JSON: %v", jsonErr)
	}
	stack, ok := record[StacktraceAttrKey].(string)
	if !ok || stack == "" {
		t.Fatalf("missing %s attribute in %v", StacktraceAttrKey, record)
	}
	if !strings.Contains(stack, "handler_test.go") {
		t.Errorf("stack trace does not reference the caller: %q", stack)
	}
}

func TestStacktraceHandlerPlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapWithStacktrace(slog.NewJSONHandler(&buf, nil)))

	logger.Error("operation failed", ErrAttr(errors.New("boom")))

	if !strings.Contains(buf.String(), "operation failed") {
		t.Error("record was not emitted")
	}
}
