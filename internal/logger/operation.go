package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// OpLogger tags every line with the operation being performed.
type OpLogger struct {
	zl *zerolog.Logger
}

// For builds an operation logger from the request context.
func For(ctx context.Context) *OpLogger {
	return &OpLogger{zl: FromContext(ctx)}
}

func (l *OpLogger) LogError(operation string, err error) {
	l.zl.Error().Str("operation", operation).Err(err).Send()
}

func (l *OpLogger) LogErrorf(operation string, format string, args ...interface{}) {
	l.zl.Error().Str("operation", operation).Msg(fmt.Sprintf(format, args...))
}

func (l *OpLogger) LogInfo(operation string, message string) {
	l.zl.Info().Str("operation", operation).Msg(message)
}

func (l *OpLogger) LogInfof(operation string, format string, args ...interface{}) {
	l.zl.Info().Str("operation", operation).Msg(fmt.Sprintf(format, args...))
}

func (l *OpLogger) LogWarn(operation string, message string) {
	l.zl.Warn().Str("operation", operation).Msg(message)
}

func (l *OpLogger) LogWarnf(operation string, format string, args ...interface{}) {
	l.zl.Warn().Str("operation", operation).Msg(fmt.Sprintf(format, args...))
}
