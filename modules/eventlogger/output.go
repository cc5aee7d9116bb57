package eventlogger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/digitalneighbour/sitekit"
)

// LogEntry is one logged event.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OutputTarget receives log entries.
type OutputTarget interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	WriteEvent(entry *LogEntry) error
	Flush() error
}

// LoggerTarget writes entries through the application logger at the
// entry's level.
type LoggerTarget struct {
	logger sitekit.Logger
}

func NewLoggerTarget(logger sitekit.Logger) *LoggerTarget {
	return &LoggerTarget{logger: logger}
}

func (t *LoggerTarget) Start(context.Context) error { return nil }
func (t *LoggerTarget) Stop(context.Context) error  { return nil }
func (t *LoggerTarget) Flush() error                { return nil }

func (t *LoggerTarget) WriteEvent(entry *LogEntry) error {
	args := []any{"type", entry.Type, "source", entry.Source, "id", entry.ID}
	if entry.Data != nil {
		args = append(args, "data", entry.Data)
	}
	switch entry.Level {
	case LevelError:
		t.logger.Error("Event", args...)
	case LevelWarn:
		t.logger.Warn("Event", args...)
	case LevelDebug:
		t.logger.Debug("Event", args...)
	default:
		t.logger.Info("Event", args...)
	}
	return nil
}

// FileTarget appends entries as JSON lines.
type FileTarget struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

func NewFileTarget(path string) *FileTarget {
	return &FileTarget{path: path}
}

func (t *FileTarget) Start(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	t.file = file
	t.writer = bufio.NewWriter(file)
	return nil
}

func (t *FileTarget) WriteEvent(entry *LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer == nil {
		return ErrFileNotOpen
	}
	if _, err := t.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

func (t *FileTarget) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer == nil {
		return nil
	}
	return t.writer.Flush()
}

func (t *FileTarget) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	flushErr := t.writer.Flush()
	closeErr := t.file.Close()
	t.file, t.writer = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
