package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nibzard/task-cli/internal/config"
)

// initCommand writes an example project config to the working directory.
func initCommand(e *env, args []string) error {
	force := false
	for _, arg := range args {
		switch arg {
		case "-f", "--force", "-force":
			force = true
		default:
			return usageError("init [--force]", fmt.Sprintf("unexpected argument: %s", arg))
		}
	}

	path := filepath.Join(e.cfg.WorkDir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(e.stdout, "Config already exists: %s (use --force to overwrite)\n", path)
		return nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	e.logger.Debug("wrote config", "path", path)
	fmt.Fprintf(e.stdout, "Created %s\n", path)
	return nil
}
