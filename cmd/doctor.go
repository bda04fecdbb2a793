package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nibzard/task-cli/internal/config"
	"github.com/nibzard/task-cli/internal/output"
	"github.com/nibzard/task-cli/internal/store"
	"github.com/nibzard/task-cli/internal/task"
)

// doctorCommand prints the effective config and checks tasks file validity.
func doctorCommand(ctx context.Context, e *env, args []string) error {
	if len(args) > 1 {
		return usageError("doctor [file]", fmt.Sprintf("unexpected arguments: %v", args[1:]))
	}
	tasksPath := e.cfg.TasksFile
	if len(args) == 1 {
		tasksPath = args[0]
		if !filepath.IsAbs(tasksPath) {
			tasksPath = filepath.Join(e.cfg.WorkDir, tasksPath)
		}
	}

	w := e.stdout
	fmt.Fprintln(w, "task-cli doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	// Config with sources
	fmt.Fprintln(w, "Config:")
	for _, field := range config.Fields() {
		value := e.cfg.Value(field)
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(w, "  %-15s %s (%s)\n", field, value, e.cws.Sources[field])
	}
	if len(e.cws.Files) == 0 {
		fmt.Fprintln(w, "  Config files: none")
	}
	for _, file := range e.cws.Files {
		fmt.Fprintf(w, "  Config file: %s\n", file)
	}
	for _, warning := range e.cws.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	fmt.Fprintln(w)

	// Tasks file
	fmt.Fprintf(w, "Tasks file: %s\n", tasksPath)
	if err := checkTasksFile(ctx, e, tasksPath); err != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "❌ Problems found.")
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✅ All checks passed.")
	return nil
}

// checkTasksFile reports on the tasks file and returns an error when it cannot
// be used.
func checkTasksFile(ctx context.Context, e *env, path string) error {
	w := e.stdout

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(w, "  ✅ Not created yet (the first add creates it)")
			return nil
		}
		fmt.Fprintf(w, "  ❌ Cannot read: %v\n", err)
		return fmt.Errorf("read tasks file %s: %w: %w", path, store.ErrIOFailure, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		fmt.Fprintln(w, "  ✅ Empty (no tasks yet)")
		return nil
	}

	result := task.Validate(data)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Invalid:")
		for _, verr := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", verr)
		}
		return fmt.Errorf("tasks file %s: %w: %d problem(s)", path, store.ErrCorruptData, len(result.Errors))
	}
	if result.UsedSchema {
		fmt.Fprintln(w, "  ✅ Schema valid")
	}

	// Load through the store so doctor sees exactly what commands see.
	st, err := e.openStore(path)
	if err != nil {
		return err
	}
	return st.View(ctx, func(tasks task.Collection) error {
		fmt.Fprintf(w, "  ✅ %d task(s), next id %d\n", len(tasks), task.NewRepository(tasks).NextID())
		fmt.Fprint(w, "     ")
		output.FormatCounts(w, tasks.CountByStatus())
		if !writtenByTool(data, tasks) {
			fmt.Fprintln(w, "  ⚠️  Formatting differs from task-cli output; the next change will rewrite it")
		}
		return nil
	})
}

// writtenByTool reports whether data is byte-for-byte what Encode produces.
func writtenByTool(data []byte, tasks task.Collection) bool {
	encoded, err := store.Encode(tasks)
	if err != nil {
		return false
	}
	return bytes.Equal(encoded, data)
}
