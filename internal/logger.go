package internal

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

const (
	logFileMaxSizeMB  = 1
	logFileMaxBackups = 1
)

// String returns the tag printed in front of each message
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

type logSink struct {
	level  LogLevel
	logger *log.Logger
}

// Logger writes leveled messages to a console sink and an optional rotating
// file sink. Each sink filters by its own level. A nil *Logger discards
// everything.
type Logger struct {
	sinks  []logSink
	closer io.Closer
}

// NewLogger creates a logger writing to w at the given level
func NewLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		sinks: []logSink{{level: level, logger: log.New(w, "", log.LstdFlags)}},
	}
}

// NewFileLogger creates a logger writing to the console at consoleLevel and to
// a size-rotated log file at debug level.
func NewFileLogger(console io.Writer, consoleLevel LogLevel, filename string) *Logger {
	l := NewLogger(console, consoleLevel)
	if filename == "" {
		return l
	}

	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
	}
	l.sinks = append(l.sinks, logSink{
		level:  LogLevelDebug,
		logger: log.New(rotator, "", log.LstdFlags|log.Lmicroseconds),
	})
	l.closer = rotator
	return l
}

// NewNopLogger returns a logger that discards all output
func NewNopLogger() *Logger {
	return NewLogger(io.Discard, LogLevelError)
}

// LevelFor maps the verbose flag to a console level
func LevelFor(verbose bool) LogLevel {
	if verbose {
		return LogLevelDebug
	}
	return LogLevelInfo
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	for _, s := range l.sinks {
		if s.level >= level {
			s.logger.Printf("["+level.String()+"] "+format, args...)
		}
	}
}

// Errorf logs an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args...)
}

// Warnf logs a warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LogLevelWarn, format, args...)
}

// Infof logs an info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args...)
}

// Debugf logs a debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args...)
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
