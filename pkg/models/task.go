package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusOpen   TaskStatus = "open"
	StatusActive TaskStatus = "active"
	StatusClosed TaskStatus = "closed"
)

// IsValid reports whether s is one of the recognized status values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusActive, StatusClosed:
		return true
	}
	return false
}

// Blocking reports whether a task in this status holds up tasks that
// list it as a blocker. Only open and active tasks block; closed ones
// never do.
func (s TaskStatus) Blocking() bool {
	return s == StatusOpen || s == StatusActive
}

// CanTransitionTo reports whether a task may move from s to next.
// Valid moves: open to active, open to closed, active to closed.
// Nothing ever leaves closed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case StatusOpen:
		return next == StatusActive || next == StatusClosed
	case StatusActive:
		return next == StatusClosed
	}
	return false
}

// Task represents a single unit of work in the store. The yaml tags
// describe the record header; ID, Description, and Archived are derived
// from the record's filename, body, and location and are never written
// into the header.
type Task struct {
	ID          string     `yaml:"-"`
	Title       string     `yaml:"title"`
	Status      TaskStatus `yaml:"status"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
	ClosedAt    *time.Time `yaml:"closed_at,omitempty"`
	CloseReason string     `yaml:"close_reason,omitempty"`
	Blocks      []string   `yaml:"blocks,omitempty"`
	Parent      string     `yaml:"parent,omitempty"`
	PeerIndex   float64    `yaml:"peer_index"`

	Description string `yaml:"-"`
	Archived    bool   `yaml:"-"`
}

// IsClosed reports whether the task has reached its terminal status.
func (t *Task) IsClosed() bool {
	return t.Status == StatusClosed
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.Parent == ""
}

// Clone returns a deep copy of the task. Mutating the copy's Blocks
// slice never aliases the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.Blocks != nil {
		c.Blocks = make([]string, len(t.Blocks))
		copy(c.Blocks, t.Blocks)
	}
	if t.ClosedAt != nil {
		at := *t.ClosedAt
		c.ClosedAt = &at
	}
	return &c
}
