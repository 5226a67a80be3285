// Package log configures structured logging for pipeline runs.
//
// Output is JSON over log/slog so batch runs on the managed platform land in
// the host's log collector as structured records. The handler is wrapped so
// any cockroachdb/errors value logged with ErrAttr carries its stack trace
// as a separate attribute.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// Setup installs the process-wide JSON logger at the given level.
func Setup(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	slog.SetDefault(slog.New(WrapWithStacktrace(handler)))
}

// ToLogLevel converts a level name to its slog level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
