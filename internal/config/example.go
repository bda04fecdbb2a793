package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# task-cli configuration file
# Values can be overridden by TASK_CLI_* environment variables or CLI flags

# Tasks file (relative to the working directory, supports ~ expansion)
tasks_file = "tasks.json"

# Write to a temp file and rename it over the tasks file
atomic_write = true

# Take an advisory lock (<tasks_file>.lock) around each command
lock = false

# How long to wait for the lock before giving up (milliseconds)
lock_timeout_ms = 2000

# Logging: debug, info, warn, error
log_level = "warn"

# Log format: text, json, logfmt
log_format = "text"

# Show timestamps and caller location in logs
log_timestamps = false
log_caller = false

# Append logs to a file instead of stderr
# log_file = "~/.task-cli/task-cli.log"
`
}
