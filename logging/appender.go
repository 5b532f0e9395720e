package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. zapcore.Core satisfies it.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// NewStdoutAppender returns an appender writing console formatted entries to stdout.
func NewStdoutAppender() Appender {
	return NewWriterAppender(zapcore.Lock(os.Stdout))
}

// NewWriterAppender returns an appender writing console formatted entries to w.
func NewWriterAppender(w zapcore.WriteSyncer) Appender {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(NewEncoderConfig()), w, zapcore.DebugLevel)
}

// NewFileAppender returns an appender writing console formatted entries to a size rotated file.
func NewFileAppender(cfg Config) Appender {
	return NewWriterAppender(zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}))
}

func callerToString(caller *zapcore.EntryCaller) string {
	// Only keep the `<package>/<file>` part of the path.
	return fmt.Sprintf("%s:%d", filepath.Join(filepath.Base(filepath.Dir(caller.File)), filepath.Base(caller.File)), caller.Line)
}
