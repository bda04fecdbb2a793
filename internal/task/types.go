package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Error kinds returned by repository operations.
var (
	// ErrInvalidInput reports a bad argument: empty description, malformed id,
	// unknown status.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports an operation on an id that is not in the collection.
	ErrNotFound = errors.New("not found")
)

// Status represents a task status.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus parses a status name as typed on the command line.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.TrimSpace(s))
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q (expected todo, in-progress or done)", ErrInvalidInput, s)
	}
	return status, nil
}

// ParseID parses a task id argument. Ids must be positive base-10 integers.
func ParseID(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: task id required", ErrInvalidInput)
	}
	id, err := strconv.Atoi(trimmed)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid task id %q (expected a positive integer)", ErrInvalidInput, s)
	}
	return id, nil
}

// Timestamp is a point in time that may be unset.
// The zero value marshals as "" and both "" and null unmarshal to the zero
// value, matching files written by earlier versions of the tool.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns t as a UTC timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	ts.Time = t.UTC()
	return nil
}

// Task represents a single tracked item.
type Task struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == 0
}

// Collection is the ordered set of tasks persisted together.
type Collection []Task

// MarshalJSON writes an empty collection as [] rather than null.
func (c Collection) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Task(c))
}

// Clone returns a copy of the collection that shares no backing array.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// MaxID returns the largest id in the collection, or 0 when it is empty.
func (c Collection) MaxID() int {
	highest := 0
	for _, t := range c {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}

// CountByStatus returns the number of tasks per status.
func (c Collection) CountByStatus() map[Status]int {
	counts := map[Status]int{
		StatusTodo:       0,
		StatusInProgress: 0,
		StatusDone:       0,
	}
	for _, t := range c {
		counts[t.Status]++
	}
	return counts
}
