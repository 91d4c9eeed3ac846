package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event is one journal entry describing a store mutation.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter narrows a journal read.
type EventFilter struct {
	// Types keeps only events of these types; empty keeps all.
	Types []string
	// Since keeps only events at or after this time.
	Since time.Time
	// Limit keeps only the most recent N events; zero keeps all.
	Limit int
}

func (f EventFilter) matches(e Event) bool {
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}

// EventLog is the append-only operation journal.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog appends events to a JSONL file, one object per line.
type jsonlEventLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONLEventLog creates an EventLog backed by the given file. The
// file is opened lazily on first write, so constructing the log for a
// store that does not exist yet creates nothing on disk.
func NewJSONLEventLog(path string) EventLog {
	return &jsonlEventLog{path: path}
}

// Write appends one event. Events missing a timestamp or level get
// stamped here.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return fmt.Errorf("creating journal directory: %w", err)
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening journal %s: %w", l.path, err)
		}
		l.file = f
	}

	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = "info"
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Read returns matching events in journal order. Malformed lines are
// skipped; a truncated tail from a crashed writer must not make the
// journal unreadable. A missing journal reads as empty.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal %s: %w", l.path, err)
	}

	var events []Event
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if filter.matches(e) {
			events = append(events, e)
		}
	}

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[len(events)-filter.Limit:]
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
