package ldif

import "github.com/rs/zerolog"

// Logger receives diagnostic output from the parser. It matches the shape of
// structured loggers without binding the package to a concrete one.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps the given zerolog logger.
func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]any) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]any) {
	l.log.Error().Fields(fields).Msg(msg)
}

// NopLogger discards all output. It is the default when no Logger is set.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]any) {}
func (NopLogger) Warn(string, map[string]any)  {}
func (NopLogger) Error(string, map[string]any) {}
