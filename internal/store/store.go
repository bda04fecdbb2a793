// Package store persists task collections.
//
// A Store hands out whole collections: every Load reads the full persisted
// state and every Save replaces it. Update and View wrap one
// load → operate → save cycle so callers never write partial results.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nibzard/task-cli/internal/task"
)

// Error kinds returned by stores.
var (
	// ErrIOFailure reports an OS-level read or write failure other than a
	// missing file.
	ErrIOFailure = errors.New("i/o failure")

	// ErrCorruptData reports persisted content that is not a valid task array.
	ErrCorruptData = errors.New("corrupt data")
)

// UpdateFunc receives the loaded collection and returns the collection to
// persist. Returning an error aborts the cycle without writing.
type UpdateFunc func(task.Collection) (task.Collection, error)

// ViewFunc receives the loaded collection for read-only use.
type ViewFunc func(task.Collection) error

// Store is the persistence boundary for the task collection.
type Store interface {
	// Load returns the persisted collection, or an empty one when nothing has
	// been saved yet.
	Load(ctx context.Context) (task.Collection, error)

	// Save replaces the persisted collection.
	Save(ctx context.Context, tasks task.Collection) error

	// Update runs one load → fn → save cycle.
	Update(ctx context.Context, fn UpdateFunc) error

	// View runs one load → fn cycle without saving.
	View(ctx context.Context, fn ViewFunc) error
}

// Encode serializes a collection with 2-space indentation and a trailing
// newline.
func Encode(tasks task.Collection) ([]byte, error) {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode validates and parses persisted content. Blank content decodes to an
// empty collection.
func Decode(data []byte) (task.Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return task.Collection{}, nil
	}

	result := task.Validate(data)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, result.Err())
	}

	var tasks task.Collection
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if tasks == nil {
		tasks = task.Collection{}
	}
	// Without the schema only ids were checked.
	if !result.UsedSchema {
		if minimal := tasks.ValidateMinimal(); !minimal.Valid {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, minimal.Err())
		}
	}
	return tasks, nil
}

func canceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
