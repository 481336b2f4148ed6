// Package log configures structured JSON logging for the benchmarking
// pipeline on top of log/slog, with stack-trace extraction for errors
// produced by cockroachdb/errors.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/neurobench/brainage/pkg/errors"
)

// SetupLogger installs the default slog logger used by the pipeline.
func SetupLogger(loglevel string) {
	slog.SetDefault(slog.New(newHandler(os.Stderr, ToLogLevel(loglevel))))
}

// newHandler builds the pipeline's JSON handler: severity/message key
// rewriting plus the stacktrace-extracting wrapper.
func newHandler(w io.Writer, level slog.Level) slog.Handler {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	return WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
}

// ParseLevel maps a level name to its slog level, rejecting unknown names.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.NewValidationError("log-level", "unknown log level", level)
	}
}

// ToLogLevel maps a level name to its slog level.
func ToLogLevel(level string) slog.Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
	return l
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
