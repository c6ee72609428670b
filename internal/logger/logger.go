package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the logging level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Options configures the process logger.
type Options struct {
	Enabled bool
	Level   string
	File    string
	Console bool
}

// Logger is a basic leveled logger.
type Logger struct {
	level   Level
	logger  *log.Logger
	enabled bool
	closer  io.Closer
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
)

// Init initializes the process logger.
func Init(opts Options) error {
	if !opts.Enabled {
		swap(&Logger{enabled: false})
		return nil
	}

	var writers []io.Writer
	var closer io.Closer
	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	swap(&Logger{
		level:   ParseLevel(opts.Level),
		logger:  log.New(io.MultiWriter(writers...), "", 0),
		enabled: true,
		closer:  closer,
	})
	return nil
}

// SetOutput routes log lines to w at the given level. Intended for tests and embedding.
func SetOutput(w io.Writer, level Level) {
	swap(&Logger{level: level, logger: log.New(w, "", 0), enabled: true})
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil || globalLogger.closer == nil {
		return nil
	}
	err := globalLogger.closer.Close()
	globalLogger.closer = nil
	return err
}

func swap(l *Logger) {
	mu.Lock()
	old := globalLogger
	globalLogger = l
	mu.Unlock()
	if old != nil && old.closer != nil {
		old.closer.Close()
	}
}

// ParseLevel maps a config string to a Level. Unknown values map to Info.
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

func logf(level Level, format string, args ...interface{}) {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil || !l.enabled || l.level > level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", ts, level, fmt.Sprintf(format, args...)))
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	logf(Debug, format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logf(Info, format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	logf(Warn, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	logf(Error, format, args...)
}
