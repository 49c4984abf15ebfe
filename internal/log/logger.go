// Package log is the logging facade used across lyxs. It keeps a small,
// structured API (fields, error-aware entries, a process-wide default logger)
// and delegates formatting and output to logrus.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"lyxs/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logging is the interface components accept so tests can inject a logger.
type Logging interface {
	Debug(msg string, args ...interface{})
	Debugf(format string, args ...interface{})
	Info(msg string, args ...interface{})
	Infof(format string, args ...interface{})
	Warn(msg string, args ...interface{})
	Warnf(format string, args ...interface{})
	Error(msg string, args ...interface{})
	Errorf(format string, args ...interface{})
	With(fields ...Field) Logging
	WithError(err error) Logging
	WithContext(ctx context.Context) Logging
}

// Logger is the logrus-backed Logging implementation.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
	file  *os.File
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sends log output to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.base.SetOutput(w)
	}
}

// WithJSON switches to JSON output with message/timestamp keys.
func WithJSON() Option {
	return func(l *Logger) {
		l.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}
}

// WithLevel sets the minimum level by name: debug, info, warn or error.
// Debug entries additionally require SetDebug(true).
func WithLevel(level string) Option {
	return func(l *Logger) {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			l.entry.WithError(err).Warn("unknown log level")
			return
		}
		l.base.SetLevel(lvl)
	}
}

// WithFile appends log output to the file at path in addition to stderr.
// If the file cannot be opened, output is left unchanged.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.entry.WithError(err).Warn("cannot open log file")
			return
		}
		l.file = f
		l.base.SetOutput(io.MultiWriter(os.Stderr, f))
	}
}

// WithFileOnly writes log output only to the file at path. Used by the
// terminal UI, where anything on stderr would corrupt the screen.
func WithFileOnly(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.base.SetOutput(io.Discard)
			return
		}
		l.file = f
		l.base.SetOutput(f)
	}
}

// NewLogger creates a Logger writing human-readable text to stderr.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{base: base, entry: logrus.NewEntry(base)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close releases the log file opened by WithFile, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// SetDebug toggles debug output for every logger.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// IsDebug reports whether debug output is enabled.
func IsDebug() bool {
	return isDebug.Load()
}

// Configure replaces the process-wide logger, closing the log file of the
// one it replaces.
func Configure(opts ...Option) {
	old := logger
	logger = NewLogger(opts...)
	old.Close()
}

// Shutdown closes the process-wide logger's file.
func Shutdown() {
	logger.Close()
}

// Default returns the process-wide logger.
func Default() Logging {
	return logger
}

func render(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func (l *Logger) derive(entry *logrus.Entry) *Logger {
	return &Logger{base: l.base, entry: entry, file: l.file}
}

// Debug logs at debug level when debug output is enabled.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if isDebug.Load() {
		l.entry.Debug(render(msg, args))
	}
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		l.entry.Debugf(format, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.entry.Info(render(msg, args))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.entry.Warn(render(msg, args))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.entry.Error(render(msg, args))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// With returns a logger that attaches fields to every entry.
func (l *Logger) With(fields ...Field) Logging {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return l.derive(l.entry.WithFields(lf))
}

// WithError attaches err along with its kind and path/param details.
func (l *Logger) WithError(err error) Logging {
	return l.With(errorFields(err)...)
}

// WithContext binds ctx to the entry.
func (l *Logger) WithContext(ctx context.Context) Logging {
	if ctx == nil {
		return l
	}
	return l.derive(l.entry.WithContext(ctx))
}

func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{F("error", err.Error()), F("error_kind", int(errors.KindOf(err)))}

	var fileErr *errors.FileError
	var snapErr *errors.SnapshotError
	var cfgErr *errors.ConfigError
	switch {
	case errors.As(err, &fileErr) && fileErr.Path() != "":
		fields = append(fields, F("path", fileErr.Path()))
	case errors.As(err, &snapErr) && snapErr.Path() != "":
		fields = append(fields, F("path", snapErr.Path()))
	case errors.As(err, &cfgErr) && cfgErr.Param() != "":
		fields = append(fields, F("param", cfgErr.Param()))
	}
	return fields
}

// LogWithFields returns the default logger with fields attached.
func LogWithFields(fields ...Field) Logging {
	return logger.With(fields...)
}

// LogWithError returns the default logger with err attached.
func LogWithError(err error) Logging {
	return logger.WithError(err)
}

// LogError logs err at error level on the default logger.
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}

func Info(msg string, args ...interface{}) {
	logger.Info(msg, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Debug logs a message when debug output is enabled
func Debug(msg string, args ...interface{}) {
	logger.Debug(msg, args...)
}

// Debugf logs a formatted message
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	logger.Warn(msg, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	logger.Error(msg, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
