// Package log is the console's structured logger. It wraps logrus with the
// field helpers and typed-error integration used across recoveryctl.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"recoveryctl/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug = false
	logger  = NewLogger()
)

// Field is a single structured key/value attached to a log record
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type options struct {
	out   io.Writer
	json  bool
	file  string
	level logrus.Level
}

// Option configures a Logger
type Option func(*options)

// WithOutput sets the writer records are written to
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to JSON records
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile additionally appends every record to the file at path
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel sets the minimum level (debug, info, warn, error). Unknown
// names keep the default.
func WithLevel(name string) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(name); err == nil {
			o.level = lvl
		}
	}
}

// Logger writes leveled records with attached fields
type Logger struct {
	entry *logrus.Entry
	level logrus.Level
	file  *os.File
}

// NewLogger builds a logger from the given options. It writes text records
// to stdout at info level by default.
func NewLogger(opts ...Option) *Logger {
	o := options{out: os.Stdout, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	base := logrus.New()
	// Filtering happens in log() so SetDebug can apply to existing loggers.
	base.SetLevel(logrus.TraceLevel)

	l := &Logger{level: o.level}
	out := o.out
	if o.file != "" {
		if dir := filepath.Dir(o.file); dir != "" {
			_ = os.MkdirAll(dir, 0755)
		}
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", o.file, err)
		} else {
			l.file = f
			out = io.MultiWriter(o.out, f)
		}
	}
	base.SetOutput(out)

	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l.entry = logrus.NewEntry(base)
	return l
}

// Configure replaces the package logger
func Configure(opts ...Option) {
	logger.Close()
	logger = NewLogger(opts...)
}

// SetDebug enables or disables debug records process-wide
func SetDebug(debug bool) {
	isDebug = debug
}

// Close releases the log file, if any
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// With returns a child logger carrying the given fields
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), level: l.level}
}

type sessionKey struct{}

// ContextWithSession tags ctx with a console session id
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// WithContext returns a logger carrying the session id stored in ctx, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
		return l.With(F("session", id))
	}
	return l
}

func (l *Logger) log(level logrus.Level, msg string) {
	if level > l.level && !(level == logrus.DebugLevel && isDebug) {
		return
	}
	entry := l.entry
	if _, file, line, ok := runtime.Caller(2); ok {
		entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
	}
	entry.Log(level, msg)
}

func (l *Logger) Debug(msg string) { l.log(logrus.DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(logrus.InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.log(logrus.WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.log(logrus.ErrorLevel, msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(logrus.DebugLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// Package-level helpers write through the configured package logger.

func Debug(msg string) { logger.log(logrus.DebugLevel, msg) }
func Info(msg string)  { logger.log(logrus.InfoLevel, msg) }
func Warn(msg string)  { logger.log(logrus.WarnLevel, msg) }
func Error(msg string) { logger.log(logrus.ErrorLevel, msg) }

func Debugf(format string, args ...interface{}) {
	logger.log(logrus.DebugLevel, fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	logger.log(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	logger.log(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	logger.log(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// LogWithFields returns the package logger with fields attached
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithContext returns the package logger tagged from ctx
func LogWithContext(ctx context.Context) *Logger {
	return logger.WithContext(ctx)
}

// LogWithError returns the package logger with the error and, for typed
// application errors, its kind and attributes attached.
func LogWithError(err error) *Logger {
	if err == nil {
		return logger.With(F("error", "<nil>"))
	}

	fields := []Field{F("error", err.Error()), F("error_kind", int(errors.KindOf(err)))}

	var fileErr *errors.FileError
	var configErr *errors.ConfigError
	var volErr *errors.VolumeError
	var cmdErr *errors.CommandError
	switch {
	case errors.As(err, &configErr):
		fields = append(fields, F("param", configErr.Param()))
	case errors.As(err, &volErr):
		fields = append(fields, F("mount_point", volErr.MountPoint()), F("operation", volErr.Operation()))
	case errors.As(err, &cmdErr):
		fields = append(fields, F("operation", cmdErr.Operation()), F("status", cmdErr.Status()))
	case errors.As(err, &fileErr):
		fields = append(fields, F("path", fileErr.Path()))
	}
	return logger.With(fields...)
}

// LogError logs err at error level with msg
func LogError(err error, msg string) {
	LogWithError(err).log(logrus.ErrorLevel, msg)
}
