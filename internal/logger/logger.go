// Package logger writes leveled, key=value log lines for ohm.
//
// The TUI owns the terminal, so entries go to a rotating file under the data
// directory unless Console is set. Any extra io.Writer can be attached with
// Config.Output, which is what tests use.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level name
func (l Level) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config value onto a Level. Anything unrecognised is INFO.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WARN
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return INFO
}

// Field is one key=value pair attached to an entry
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Err is a shorthand for an "error" field
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Config holds logger configuration
type Config struct {
	Level      Level
	FilePath   string // empty disables file output
	MaxSize    int64  // bytes before the file is rotated
	MaxBackups int
	Console    bool // mirror to stderr
	Output     io.Writer
}

// DefaultConfig logs INFO and above to ~/.ohm/logs/ohm.log
func DefaultConfig() Config {
	c := Config{
		Level:      INFO,
		MaxSize:    5 << 20,
		MaxBackups: 3,
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.FilePath = filepath.Join(home, ".ohm", "logs", "ohm.log")
	}
	return c
}

// Logger is safe for concurrent use. Loggers derived with WithFields share
// the parent's outputs.
type Logger struct {
	config Config
	out    *output
	fields []Field
}

// output fans a formatted line out to every destination under one lock
type output struct {
	mu    sync.Mutex
	file  *rotatingFile
	extra []io.Writer
}

func (o *output) write(line []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file != nil {
		_, _ = o.file.Write(line)
	}
	for _, w := range o.extra {
		_, _ = w.Write(line)
	}
}

// New creates a logger writing to the destinations in config
func New(config Config) (*Logger, error) {
	out := &output{}
	if config.FilePath != "" {
		f, err := openRotating(config.FilePath, config.MaxSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		out.file = f
	}
	if config.Console {
		out.extra = append(out.extra, os.Stderr)
	}
	if config.Output != nil {
		out.extra = append(out.extra, config.Output)
	}
	return &Logger{config: config, out: out}, nil
}

// WithFields returns a logger that adds fields to every entry
func (l *Logger) WithFields(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{config: l.config, out: l.out, fields: merged}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) { l.emit(DEBUG, msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) { l.emit(INFO, msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(WARN, msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) { l.emit(ERROR, msg, fields) }

// emit must be called exactly two frames below the user's call site
func (l *Logger) emit(level Level, msg string, fields []Field) {
	if level < l.config.Level {
		return
	}
	l.out.write(format(time.Now(), level, callSite(3), msg, l.fields, fields))
}

// Close closes the log file
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file == nil {
		return nil
	}
	err := l.out.file.Close()
	l.out.file = nil
	return err
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "?"
	}
	return filepath.Base(file) + ":" + fmt.Sprint(line)
}

// format renders: 2026-01-02T15:04:05.000Z INFO  [file.go:12] msg key=value ...
func format(at time.Time, level Level, caller, msg string, groups ...[]Field) []byte {
	var b strings.Builder
	b.WriteString(at.UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(&b, " %-5s [%s] %s", level, caller, msg)
	for _, fields := range groups {
		for _, f := range fields {
			b.WriteByte(' ')
			b.WriteString(f.Key)
			b.WriteByte('=')
			b.WriteString(quote(f.Value))
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func quote(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

var (
	mu     sync.RWMutex
	global *Logger
)

// Init installs the process-wide logger. The first call wins.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return nil
	}
	l, err := New(config)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// Close closes and uninstalls the process-wide logger
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		return nil
	}
	err := global.Close()
	global = nil
	return err
}

// GetConfig returns the active configuration, or the defaults before Init
func GetConfig() Config {
	if l := active(); l != nil {
		return l.config
	}
	return DefaultConfig()
}

func active() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Debug logs through the process-wide logger. It is a no-op before Init.
func Debug(msg string, fields ...Field) {
	if l := active(); l != nil {
		l.emit(DEBUG, msg, fields)
	}
}

// Info logs an info message through the process-wide logger
func Info(msg string, fields ...Field) {
	if l := active(); l != nil {
		l.emit(INFO, msg, fields)
	}
}

// Warn logs a warning through the process-wide logger
func Warn(msg string, fields ...Field) {
	if l := active(); l != nil {
		l.emit(WARN, msg, fields)
	}
}

// Error logs an error through the process-wide logger
func Error(msg string, fields ...Field) {
	if l := active(); l != nil {
		l.emit(ERROR, msg, fields)
	}
}
