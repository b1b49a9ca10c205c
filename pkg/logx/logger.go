package logx

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog that carries a component name and
// whatever contextual fields (traceId, jobId, documentId) were attached
// via With.
type Logger struct {
	inner *slog.Logger
}

// Init installs the process-wide default handler. JSON output is used in
// production so log aggregators can parse the trace fields.
func Init(level slog.Level, jsonOutput bool) {
	InitWithWriter(os.Stdout, level, jsonOutput)
}

// InitWithWriter is Init with an explicit destination. The MCP entrypoint
// logs to stderr because stdout carries the protocol stream.
func InitWithWriter(w io.Writer, level slog.Level, jsonOutput bool) {
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

// New returns a logger scoped to one component of the service.
func New(component string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", component),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}
