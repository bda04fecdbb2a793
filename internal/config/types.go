package config

import "time"

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, lowest priority first.
	Files []string

	// Warnings holds non-fatal problems such as unknown keys in config files.
	Warnings []string
}

// Default values.
const (
	AppName                  = "task-cli"
	DefaultTasksFile         = "tasks.json"
	DefaultAtomicWrite       = true
	DefaultLock              = false
	DefaultLockTimeoutMillis = 2000
	DefaultLogLevel          = "warn"
	DefaultLogFormat         = "text"

	// ConfigFileName is the config file name in both user and project locations.
	ConfigFileName = "task-cli.toml"
)

// Config holds the full configuration for task-cli.
type Config struct {
	// Paths
	TasksFile string `toml:"tasks_file"`

	// Persistence hardening
	AtomicWrite       bool `toml:"atomic_write"`
	Lock              bool `toml:"lock"`
	LockTimeoutMillis int  `toml:"lock_timeout_ms"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogFile       string `toml:"log_file"`

	// Working directory (computed)
	WorkDir string `toml:"-"`
}

// LockTimeout returns the lock timeout as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMillis) * time.Millisecond
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"tasks_file",
		"atomic_write",
		"lock",
		"lock_timeout_ms",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_file",
	}
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}

// Value returns the display value of a configurable field.
func (c *Config) Value(field string) string {
	switch field {
	case "tasks_file":
		return c.TasksFile
	case "atomic_write":
		return formatBool(c.AtomicWrite)
	case "lock":
		return formatBool(c.Lock)
	case "lock_timeout_ms":
		return formatInt(c.LockTimeoutMillis)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return formatBool(c.LogTimestamps)
	case "log_caller":
		return formatBool(c.LogCaller)
	case "log_file":
		return c.LogFile
	}
	return ""
}
