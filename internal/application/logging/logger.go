package logging

import "context"

// Logger is the structured logger carried through context. Adapters decide
// where entries land: stdout for the CLI, the audit table for the daemon.
type Logger interface {
	Log(level, message string, metadata map[string]interface{})
}

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falling back to a no-op
// logger when none was attached
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}
