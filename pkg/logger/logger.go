// Package logger provides the leveled logger shared by every service.
// Output goes to stdout, optionally mirrored into a rotated file, as plain
// text or one JSON object per line.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes leveled, optionally structured log lines.
type Logger struct {
	mu     sync.Mutex
	level  Level
	json   bool
	writer io.Writer
}

type logLine struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a logger. When toFile is set the file is rotated with
// lumberjack (100MB, 7 backups, 30 days) and stdout still receives a copy.
func New(level string, toFile bool, filePath string, format string) *Logger {
	var writer io.Writer = os.Stdout
	if toFile && filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		writer = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
			Compress:   true,
		})
	}

	return &Logger{
		level:  ParseLevel(level),
		json:   format == "json",
		writer: writer,
	}
}

func (l *Logger) write(level Level, msg string, fields map[string]any) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.json {
		line := logLine{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Level:     level.String(),
			Message:   msg,
			Fields:    fields,
		}
		data, err := json.Marshal(line)
		if err == nil {
			fmt.Fprintln(l.writer, string(data))
			return
		}
		// fall through to plain text on marshal failure
	}

	if len(fields) > 0 {
		fmt.Fprintf(l.writer, "%s [%s] %s %v\n", time.Now().Format("2006/01/02 15:04:05"), level, msg, fields)
		return
	}
	fmt.Fprintf(l.writer, "%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level, msg)
}

func (l *Logger) Debug(format string, v ...any) {
	l.write(LevelDebug, sprintf(format, v...), nil)
}

func (l *Logger) Info(format string, v ...any) {
	l.write(LevelInfo, sprintf(format, v...), nil)
}

func (l *Logger) Warn(format string, v ...any) {
	l.write(LevelWarn, sprintf(format, v...), nil)
}

func (l *Logger) Error(format string, v ...any) {
	l.write(LevelError, sprintf(format, v...), nil)
}

// WithFields logs msg with structured fields attached.
func (l *Logger) WithFields(level string, msg string, fields map[string]any) {
	l.write(ParseLevel(level), msg, fields)
}

func sprintf(format string, v ...any) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}
