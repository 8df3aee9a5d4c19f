package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for general informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
)

var logrusLevels = map[LogLevel]logrus.Level{
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Config controls where and how logs are written
type Config struct {
	Level  string
	Format string // "text" or "json"
	Color  bool
	File   FileConfig
}

// FileConfig enables a rotating log file next to stdout
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger provides leveled, prefixed logging on top of logrus
type Logger struct {
	base   *logrus.Logger
	entry  *logrus.Entry
	prefix string
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
	once          sync.Once
)

// Init initializes the default logger with configuration from environment variables
// Environment variables:
//   - LOG_LEVEL: Set log level (DEBUG, INFO, WARN, ERROR). Default: INFO
//   - LOG_COLOR: Enable colored output (true/false). Default: true
func Init() {
	once.Do(func() {
		enableColors := true
		if colorStr := os.Getenv("LOG_COLOR"); colorStr == "false" || colorStr == "0" {
			enableColors = false
		}
		l := New(ParseLevel(os.Getenv("LOG_LEVEL")), os.Stdout, enableColors, "")
		mu.Lock()
		if defaultLogger == nil {
			defaultLogger = l
		}
		mu.Unlock()
	})
}

// Configure replaces the default logger using cfg. Stdout is always written;
// the rotating file is added when cfg.File.Enabled is set.
func Configure(cfg Config) *Logger {
	writers := []io.Writer{os.Stdout}
	if cfg.File.Enabled && cfg.File.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}

	l := New(ParseLevel(cfg.Level), io.MultiWriter(writers...), cfg.Color, "")
	if strings.EqualFold(cfg.Format, "json") {
		l.base.SetFormatter(&logrus.JSONFormatter{})
	}

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// New creates a new Logger instance
func New(level LogLevel, output io.Writer, enableColors bool, prefix string) *Logger {
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(logrusLevels[level])
	base.SetFormatter(&logrus.TextFormatter{
		ForceColors:      enableColors,
		DisableColors:    !enableColors,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})

	l := &Logger{base: base, entry: logrus.NewEntry(base)}
	if prefix != "" {
		return l.WithPrefix(prefix)
	}
	return l
}

// SetLevel changes the current log level
func (l *Logger) SetLevel(level LogLevel) {
	l.base.SetLevel(logrusLevels[level])
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	switch l.base.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DEBUG
	case logrus.WarnLevel:
		return WARN
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ERROR
	default:
		return INFO
	}
}

// IsLevelEnabled checks if a specific log level is enabled
func (l *Logger) IsLevelEnabled(level LogLevel) bool {
	return l.base.IsLevelEnabled(logrusLevels[level])
}

func (l *Logger) format(format string) string {
	if l.prefix == "" {
		return format
	}
	return "[" + l.prefix + "] " + format
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(l.format(format), args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(l.format(format), args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(l.format(format), args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(l.format(format), args...)
}

// WithPrefix creates a new logger with a prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		base:   l.base,
		entry:  l.entry.WithField("component", prefix),
		prefix: prefix,
	}
}

// WithField creates a new logger that attaches key=value to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		base:   l.base,
		entry:  l.entry.WithField(key, value),
		prefix: l.prefix,
	}
}

// Global convenience functions that use the default logger

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetLevel sets the log level for the default logger
func SetLevel(level LogLevel) {
	GetDefault().SetLevel(level)
}

// GetLevel returns the current log level of the default logger
func GetLevel() LogLevel {
	return GetDefault().GetLevel()
}

// IsDebugEnabled checks if debug logging is enabled
func IsDebugEnabled() bool {
	return GetDefault().IsLevelEnabled(DEBUG)
}

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	GetDefault().Debug(format, args...)
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	GetDefault().Info(format, args...)
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	GetDefault().Warn(format, args...)
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	GetDefault().Error(format, args...)
}

// WithPrefix creates a new logger with a prefix from the default logger
func WithPrefix(prefix string) *Logger {
	return GetDefault().WithPrefix(prefix)
}
