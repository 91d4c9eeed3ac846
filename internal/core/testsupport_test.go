package core

import (
	"fmt"
	"sync"

	"github.com/slabforge/tsk/internal/storage"
)

// testRecordFS adapts the real filesystem backend to the core-local
// RecordFS interface for tests that want real file behavior.
type testRecordFS struct {
	fs storage.RecordFS
}

func newTestRecordFS() *testRecordFS {
	return &testRecordFS{fs: storage.NewFileRecordFS()}
}

func (t *testRecordFS) ScanTree(root string, skipDirs ...string) ([]RecordEntry, error) {
	entries, err := t.fs.ScanTree(root, skipDirs...)
	if err != nil {
		return nil, err
	}
	out := make([]RecordEntry, len(entries))
	for i, e := range entries {
		out[i] = RecordEntry{ID: e.ID, Path: e.Path}
	}
	return out, nil
}

func (t *testRecordFS) Read(path string) ([]byte, error)         { return t.fs.Read(path) }
func (t *testRecordFS) WriteAtomic(path string, d []byte) error  { return t.fs.WriteAtomic(path, d) }
func (t *testRecordFS) Move(oldPath, newPath string) error       { return t.fs.Move(oldPath, newPath) }
func (t *testRecordFS) RemoveFile(path string) error             { return t.fs.RemoveFile(path) }
func (t *testRecordFS) RemoveTree(path string) error             { return t.fs.RemoveTree(path) }
func (t *testRecordFS) RemoveDirIfEmpty(path string) error       { return t.fs.RemoveDirIfEmpty(path) }
func (t *testRecordFS) EnsureDir(path string) error              { return t.fs.EnsureDir(path) }
func (t *testRecordFS) Exists(path string) bool                  { return t.fs.Exists(path) }
func (t *testRecordFS) RemoveEmptyDirs(root string, keep ...string) (int, error) {
	return t.fs.RemoveEmptyDirs(root, keep...)
}

// recordedEvent is one LogEvent call captured by testEventLogger.
type recordedEvent struct {
	Type string
	Data map[string]any
}

// testEventLogger captures journal writes in memory.
type testEventLogger struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *testEventLogger) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (l *testEventLogger) byType(eventType string) []recordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []recordedEvent
	for _, e := range l.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// seqIDGenerator hands out deterministic ids so tests can reference
// tasks by name.
type seqIDGenerator struct {
	prefix string
	n      int
}

func (g *seqIDGenerator) GenerateTaskID(title string, slugged bool, exists func(string) bool) (string, error) {
	for {
		g.n++
		id := fmt.Sprintf("%s-%08x", g.prefix, g.n)
		if !exists(id) {
			return id, nil
		}
	}
}
