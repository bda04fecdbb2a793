package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvTasksFile     = "TASK_CLI_FILE"
	EnvAtomicWrite   = "TASK_CLI_ATOMIC_WRITE"
	EnvLock          = "TASK_CLI_LOCK"
	EnvLockTimeout   = "TASK_CLI_LOCK_TIMEOUT_MS"
	EnvLogLevel      = "TASK_CLI_LOG_LEVEL"
	EnvLogFormat     = "TASK_CLI_LOG_FORMAT"
	EnvLogTimestamps = "TASK_CLI_LOG_TIMESTAMPS"
	EnvLogCaller     = "TASK_CLI_LOG_CALLER"
	EnvLogFile       = "TASK_CLI_LOG_FILE"
)

// loadFromEnv overrides config from environment variables and records the
// environment as the source of each value it sets.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	setString := func(env, field string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
			sources[field] = SourceEnv
		}
	}
	setBool := func(env, field string, dst *bool) error {
		v := os.Getenv(env)
		if v == "" {
			return nil
		}
		b, err := boolFromString(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = b
		sources[field] = SourceEnv
		return nil
	}

	setString(EnvTasksFile, "tasks_file", &cfg.TasksFile)
	setString(EnvLogLevel, "log_level", &cfg.LogLevel)
	setString(EnvLogFormat, "log_format", &cfg.LogFormat)
	setString(EnvLogFile, "log_file", &cfg.LogFile)

	if err := setBool(EnvAtomicWrite, "atomic_write", &cfg.AtomicWrite); err != nil {
		return err
	}
	if err := setBool(EnvLock, "lock", &cfg.Lock); err != nil {
		return err
	}
	if err := setBool(EnvLogTimestamps, "log_timestamps", &cfg.LogTimestamps); err != nil {
		return err
	}
	if err := setBool(EnvLogCaller, "log_caller", &cfg.LogCaller); err != nil {
		return err
	}

	if v := os.Getenv(EnvLockTimeout); v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvLockTimeout, v)
		}
		cfg.LockTimeoutMillis = ms
		sources["lock_timeout_ms"] = SourceEnv
	}
	return nil
}
