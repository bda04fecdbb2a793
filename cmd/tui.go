package cmd

import (
	"context"
	"fmt"

	"github.com/nibzard/task-cli/internal/store"
	"github.com/nibzard/task-cli/internal/ui"
)

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, e *env, st store.Store, args []string) error {
	if len(args) > 0 {
		return usageError("tui", fmt.Sprintf("unexpected arguments: %v", args))
	}
	return ui.RunTUI(ctx, st, e.cfg.TasksFile,
		ui.WithLogger(e.logger),
		ui.WithClock(e.now),
	)
}
