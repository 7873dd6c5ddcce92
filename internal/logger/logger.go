package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// Log levels
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// logrusLevels maps log levels to their logrus counterparts
var logrusLevels = map[LogLevel]logrus.Level{
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
	FATAL: logrus.FatalLevel,
}

// Logger handles logging functionalities
type Logger struct {
	level LogLevel
	entry *logrus.Entry
	file  *os.File
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO
func ParseLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// NewLogger creates a new logger with the specified log level
func NewLogger(levelStr string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	// Disable colors if not in a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		base.Formatter.(*logrus.TextFormatter).DisableColors = true
	}

	l := &Logger{entry: logrus.NewEntry(base)}
	l.SetLevel(levelStr)

	return l
}

// Discard returns a logger that drops every message. Libraries use it when
// the caller did not supply a logger.
func Discard() *Logger {
	l := NewLogger("error")
	l.SetOutput(io.Discard)
	return l
}

// NewFileLogger creates a new logger that writes to a file
func NewFileLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(levelStr)
	logger.SetOutput(file)
	logger.EnableColors(false)
	logger.file = file

	return logger, nil
}

// NewMultiLogger creates a logger that writes to both console and file
func NewMultiLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(levelStr)
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	logger.file = file

	return logger, nil
}

func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

// WithField returns a child logger that adds key=value to every message
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		level: l.level,
		entry: l.entry.WithField(key, value),
		file:  l.file,
	}
}

// at attaches the file:line of the caller of the exported logging method
func (l *Logger) at() *logrus.Entry {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	return l.entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
}

// Debug logs a debug message
func (l *Logger) Debug(v ...interface{}) {
	l.at().Debug(v...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.at().Debugf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(v ...interface{}) {
	l.at().Info(v...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.at().Infof(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(v ...interface{}) {
	l.at().Warn(v...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.at().Warnf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(v ...interface{}) {
	l.at().Error(v...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.at().Errorf(format, v...)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(v ...interface{}) {
	l.at().Fatal(v...)
}

// Fatalf logs a formatted fatal message and exits the program
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.at().Fatalf(format, v...)
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// SetLevel sets the log level
func (l *Logger) SetLevel(levelStr string) {
	l.level = ParseLevel(levelStr)
	l.entry.Logger.SetLevel(logrusLevels[l.level])
}

// SetOutput sets the output writer for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// EnableColors enables or disables colored output
func (l *Logger) EnableColors(enable bool) {
	if f, ok := l.entry.Logger.Formatter.(*logrus.TextFormatter); ok {
		f.DisableColors = !enable
		f.ForceColors = enable
	}
}

// Close closes the logger's file if it exists
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
