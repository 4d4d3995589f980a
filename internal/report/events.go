package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventItem        EventType = "item"
	EventCreate      EventType = "create"
	EventUpdate      EventType = "update"
	EventSkip        EventType = "skip"
	EventTranslation EventType = "translation"
	EventReconcile   EventType = "reconcile"
	EventDelete      EventType = "delete"
	EventSidecar     EventType = "sidecar"
	EventError       EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the sync pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	ItemID    string            `json:"item_id,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Key       string            `json:"key,omitempty"`
	Path      string            `json:"path,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("sync-events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns an EventLogger that discards everything
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogItem logs the outcome of one item's sync (create, update, skip)
func (l *EventLogger) LogItem(event EventType, itemID, kind, key string, duration time.Duration) error {
	level := LevelInfo
	if event == EventSkip {
		level = LevelDebug
	}
	return l.Log(&Event{
		Level:    level,
		Event:    event,
		ItemID:   itemID,
		Kind:     kind,
		Key:      key,
		Duration: duration.Milliseconds(),
	})
}

// LogItemError logs a failed item
func (l *EventLogger) LogItemError(itemID, kind string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  EventError,
		ItemID: itemID,
		Kind:   kind,
		Error:  err.Error(),
	})
}

// LogTranslation logs a translation attachment or deferral
func (l *EventLogger) LogTranslation(itemID, key, language, reason string) error {
	level := LevelInfo
	if reason != "" {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level:  level,
		Event:  EventTranslation,
		ItemID: itemID,
		Key:    key,
		Reason: reason,
		Extra:  map[string]string{"language": language},
	})
}

// LogDelete logs an orphan deletion during reconciliation
func (l *EventLogger) LogDelete(kind, key string, dryRun bool) error {
	reason := ""
	if dryRun {
		reason = "dry-run"
	}
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventDelete,
		Kind:   kind,
		Key:    key,
		Reason: reason,
	})
}

// Close flushes and closes the event log
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Path returns the event log file path, or "" for a null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
