// Package cmd implements the CLI command structure for task-cli.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/task-cli/internal/config"
	"github.com/nibzard/task-cli/internal/logging"
	"github.com/nibzard/task-cli/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// ErrUnknownCommand is returned for command names the dispatcher does not know.
var ErrUnknownCommand = errors.New("unknown command")

// env carries everything a command needs.
type env struct {
	cfg    *config.Config
	cws    *config.ConfigWithSources
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// Run executes the task-cli CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags stop at the command name.
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(stdout)
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, stderr)
		return fmt.Errorf("%w: no command given", ErrUnknownCommand)
	}
	subcommand := remainingArgs[0]
	remainingArgs = remainingArgs[1:]

	// Commands that never touch the tasks file.
	switch subcommand {
	case "version":
		return versionCommand(stdout)
	case "help":
		printUsage(fs, stdout)
		return nil
	}

	logOpts := logging.OptionsFromConfig(
		cws.Config.LogLevel,
		cws.Config.LogFormat,
		cws.Config.LogTimestamps,
		cws.Config.LogCaller,
		cws.Config.LogFile,
	)
	logOpts.Output = stderr
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeLog()
	}()
	for _, warning := range cws.Warnings {
		logger.Warn("config", "warning", warning)
	}
	logger.Debug("config loaded", "tasks_file", cws.Config.TasksFile, "files", cws.Files)

	e := &env{
		cfg:    cws.Config,
		cws:    cws,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}

	// Execute the subcommand
	switch subcommand {
	case "add":
		return e.withStore(ctx, remainingArgs, addCommand)
	case "update":
		return e.withStore(ctx, remainingArgs, updateCommand)
	case "delete":
		return e.withStore(ctx, remainingArgs, deleteCommand)
	case "mark-in-progress":
		return e.withStore(ctx, remainingArgs, markInProgressCommand)
	case "mark-done":
		return e.withStore(ctx, remainingArgs, markDoneCommand)
	case "list":
		return e.withStore(ctx, remainingArgs, listCommand)
	case "tui":
		return e.withStore(ctx, remainingArgs, tuiCommand)
	case "doctor":
		return doctorCommand(ctx, e, remainingArgs)
	case "init":
		return initCommand(e, remainingArgs)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, subcommand)
	}
}

// commandFunc runs one command against an opened store.
type commandFunc func(ctx context.Context, e *env, st store.Store, args []string) error

// withStore opens the configured tasks file and runs fn against it.
func (e *env) withStore(ctx context.Context, args []string, fn commandFunc) error {
	st, err := e.openStore(e.cfg.TasksFile)
	if err != nil {
		return err
	}
	return fn(ctx, e, st, args)
}

// openStore builds a FileStore for path using the configured write and lock options.
func (e *env) openStore(path string) (*store.FileStore, error) {
	return store.NewFileStore(path, store.FileOptions{
		AtomicWrite: e.cfg.AtomicWrite,
		Lock:        e.cfg.Lock,
		LockTimeout: e.cfg.LockTimeout(),
		Logger:      e.logger,
	})
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "%s version %s\n", config.AppName, Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "task-cli - track your tasks from the command line")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  task-cli [global options] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <description>            Add a new task")
	fmt.Fprintln(w, "  update <id> <description>    Change a task's description")
	fmt.Fprintln(w, "  delete <id>                  Delete a task")
	fmt.Fprintln(w, "  mark-in-progress <id>        Mark a task as in progress")
	fmt.Fprintln(w, "  mark-done <id>               Mark a task as done")
	fmt.Fprintln(w, "  list [todo|in-progress|done] List tasks, optionally by status")
	fmt.Fprintln(w, "  tui                          Browse and update tasks in the terminal")
	fmt.Fprintln(w, "  doctor [file]                Show config and check the tasks file")
	fmt.Fprintln(w, "  init                         Write an example task-cli.toml")
	fmt.Fprintln(w, "  version                      Show version information")
	fmt.Fprintln(w, "  help                         Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options (must come before the command):")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  task-cli add \"Buy groceries\"")
	fmt.Fprintln(w, "  task-cli mark-done 1")
	fmt.Fprintln(w, "  task-cli -file ~/work.json list in-progress")
}

// joinArgs joins description words with single spaces.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
