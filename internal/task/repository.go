package task

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FilterOutcome tells callers why a filter returned what it did.
type FilterOutcome int

const (
	// FilterMatched means at least one task was returned.
	FilterMatched FilterOutcome = iota
	// FilterEmpty means the collection holds no tasks at all.
	FilterEmpty
	// FilterNoMatch means the collection has tasks but none match the status.
	FilterNoMatch
)

// Repository applies task operations to an in-memory collection.
// It is not safe for concurrent use.
type Repository struct {
	tasks Collection
	now   func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRepository wraps tasks. The repository takes ownership of the slice.
func NewRepository(tasks Collection, opts ...Option) *Repository {
	if tasks == nil {
		tasks = Collection{}
	}
	r := &Repository{
		tasks: tasks,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tasks returns the current collection.
func (r *Repository) Tasks() Collection {
	return r.tasks
}

// Len returns the number of tasks.
func (r *Repository) Len() int {
	return len(r.tasks)
}

// NextID returns the id the next Create will assign. Create fails instead
// when the highest id is math.MaxInt.
func (r *Repository) NextID() int {
	return r.tasks.MaxID() + 1
}

// Create appends a new todo task with the next id.
func (r *Repository) Create(description string) (Task, error) {
	description, err := normalizeDescription(description)
	if err != nil {
		return Task{}, err
	}

	if r.tasks.MaxID() == math.MaxInt {
		return Task{}, fmt.Errorf("%w: no task ids left (highest id is %d)", ErrInvalidInput, math.MaxInt)
	}

	t := Task{
		ID:          r.NextID(),
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   NewTimestamp(r.now()),
	}
	r.tasks = append(r.tasks, t)
	return t, nil
}

// FindByID returns the task with the given id.
func (r *Repository) FindByID(id int) (Task, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.tasks[i], true
	}
	return Task{}, false
}

// Update replaces the description of an existing task.
func (r *Repository) Update(id int, description string) (Task, error) {
	i := r.indexOf(id)
	if i < 0 {
		return Task{}, notFound(id)
	}
	description, err := normalizeDescription(description)
	if err != nil {
		return Task{}, err
	}

	r.tasks[i].Description = description
	r.tasks[i].UpdatedAt = NewTimestamp(r.now())
	return r.tasks[i], nil
}

// SetStatus moves a task to in-progress or done and sets updatedAt.
// Setting the status a task already has still refreshes updatedAt.
func (r *Repository) SetStatus(id int, status Status) (Task, error) {
	if status != StatusInProgress && status != StatusDone {
		return Task{}, fmt.Errorf("%w: cannot set status %q", ErrInvalidInput, status)
	}
	i := r.indexOf(id)
	if i < 0 {
		return Task{}, notFound(id)
	}

	r.tasks[i].Status = status
	r.tasks[i].UpdatedAt = NewTimestamp(r.now())
	return r.tasks[i], nil
}

// Delete removes a task, keeping the order of the remaining tasks.
func (r *Repository) Delete(id int) error {
	i := r.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

// Filter returns tasks with the given status in collection order.
// An empty status returns every task.
func (r *Repository) Filter(status Status) ([]Task, FilterOutcome) {
	if len(r.tasks) == 0 {
		return nil, FilterEmpty
	}
	if status == "" {
		out := make([]Task, len(r.tasks))
		copy(out, r.tasks)
		return out, FilterMatched
	}

	var out []Task
	for _, t := range r.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, FilterNoMatch
	}
	return out, FilterMatched
}

func (r *Repository) indexOf(id int) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeDescription(description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	}
	return description, nil
}

func notFound(id int) error {
	return fmt.Errorf("task %d %w", id, ErrNotFound)
}
