package watcher

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a logging function for the watcher.
type Logger struct {
	logFunc func(string, ...interface{})
}

// Log writes one formatted line.
func (l *Logger) Log(format string, args ...interface{}) {
	l.logFunc(format, args...)
}

// NewLogger returns a logger writing timestamped lines to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		logFunc: func(format string, args ...interface{}) {
			msg := fmt.Sprintf(format, args...)
			timestamp := time.Now().Format("2006-01-02 15:04:05")
			_, _ = fmt.Fprintf(w, "[%s] %s\n", timestamp, msg)
		},
	}
}

// RotationConfig carries the log rotation knobs for a detached watcher.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewRotatingLogger creates a rotating file logger for a detached watcher.
// The returned lumberjack.Logger must be closed by the caller.
func NewRotatingLogger(logPath string, rot RotationConfig) (*lumberjack.Logger, *Logger) {
	logF := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	return logF, NewLogger(logF)
}
