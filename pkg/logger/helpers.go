package logger

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// LoggerWithCaller adds caller information to the logger
func LoggerWithCaller(skip int) Logger {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return GetLogger()
	}

	parts := strings.Split(file, "/")
	filename := parts[len(parts)-1]

	return GetLogger().WithField("caller", fmt.Sprintf("%s:%d", filename, line))
}

// LogSave logs the outcome of a single image save
func LogSave(log Logger, strategy, filename string, uri fmt.Stringer, err error) {
	fields := map[string]interface{}{
		"strategy": strategy,
		"filename": filename,
	}

	if err != nil {
		log.WithError(err).ErrorWithFields("Image save failed", fields)
		return
	}

	if uri != nil {
		fields["uri"] = uri.String()
	}
	log.InfoWithFields("Image saved", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Debug("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
