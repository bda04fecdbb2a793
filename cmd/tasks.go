package cmd

import (
	"context"
	"fmt"

	"github.com/nibzard/task-cli/internal/output"
	"github.com/nibzard/task-cli/internal/store"
	"github.com/nibzard/task-cli/internal/task"
)

// mutate runs fn inside one load, modify, save cycle.
func (e *env) mutate(ctx context.Context, st store.Store, fn func(*task.Repository) error) error {
	return st.Update(ctx, func(tasks task.Collection) (task.Collection, error) {
		repo := task.NewRepository(tasks, task.WithClock(e.now))
		if err := fn(repo); err != nil {
			return nil, err
		}
		return repo.Tasks(), nil
	})
}

// addCommand creates a task from the remaining words.
func addCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	if len(args) == 0 {
		return usageError("add <description>", "missing description")
	}
	description := joinArgs(args)

	var created task.Task
	err := e.mutate(ctx, st, func(repo *task.Repository) error {
		var err error
		created, err = repo.Create(description)
		return err
	})
	if err != nil {
		return err
	}
	e.logger.Debug("added task", "id", created.ID)
	fmt.Fprintf(e.stdout, "Task added successfully (ID: %d)\n", created.ID)
	return nil
}

// updateCommand replaces a task's description.
func updateCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	if len(args) < 2 {
		return usageError("update <id> <description>", "expected a task id and a description")
	}
	id, err := task.ParseID(args[0])
	if err != nil {
		return err
	}
	description := joinArgs(args[1:])

	err = e.mutate(ctx, st, func(repo *task.Repository) error {
		_, err := repo.Update(id, description)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Task %d updated successfully\n", id)
	return nil
}

// deleteCommand removes a task.
func deleteCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	id, err := singleID("delete <id>", args)
	if err != nil {
		return err
	}
	err = e.mutate(ctx, st, func(repo *task.Repository) error {
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Task %d deleted successfully\n", id)
	return nil
}

func markInProgressCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	return markCommand(ctx, e, st, "mark-in-progress <id>", task.StatusInProgress, args)
}

func markDoneCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	return markCommand(ctx, e, st, "mark-done <id>", task.StatusDone, args)
}

// markCommand moves a task to status.
func markCommand(ctx context.Context, e *env, st store.Store, usage string, status task.Status, args []string) error {
	id, err := singleID(usage, args)
	if err != nil {
		return err
	}
	err = e.mutate(ctx, st, func(repo *task.Repository) error {
		_, err := repo.SetStatus(id, status)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Task %d marked %s\n", id, status)
	return nil
}

// listCommand prints tasks in collection order, optionally filtered by status.
func listCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	if len(args) > 1 {
		return usageError("list [todo|in-progress|done]", fmt.Sprintf("unexpected arguments: %v", args[1:]))
	}
	var status task.Status
	if len(args) == 1 {
		var err error
		status, err = task.ParseStatus(args[0])
		if err != nil {
			return err
		}
	}

	return st.View(ctx, func(tasks task.Collection) error {
		matched, outcome := task.NewRepository(tasks).Filter(status)
		switch outcome {
		case task.FilterEmpty:
			fmt.Fprintln(e.stdout, "No tasks found. Add one with 'task-cli add <description>'.")
		case task.FilterNoMatch:
			fmt.Fprintf(e.stdout, "No tasks with status %s.\n", status)
		default:
			output.FormatTasks(e.stdout, matched)
		}
		return nil
	})
}

// singleID parses the only argument of an id command.
func singleID(usage string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, usageError(usage, "task id required")
	}
	if len(args) > 1 {
		return 0, usageError(usage, fmt.Sprintf("unexpected arguments: %v", args[1:]))
	}
	return task.ParseID(args[0])
}

// usageError reports bad arguments as invalid input, with the command's usage.
func usageError(usage, msg string) error {
	return fmt.Errorf("%w: %s (usage: task-cli %s)", task.ErrInvalidInput, msg, usage)
}
