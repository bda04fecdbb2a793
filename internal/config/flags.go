package config

import (
	"flag"
)

// flagFields maps global flag names to config field names.
var flagFields = map[string]string{
	"file":       "tasks_file",
	"lock":       "lock",
	"log-level":  "log_level",
	"log-format": "log_format",
	"log-file":   "log_file",
}

// parseFlags defines the global flags on fs, parses args, and applies the
// flags that were explicitly set.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(AppName, flag.ContinueOnError)
	}

	// Bind to copies so unset flags never clobber lower layers.
	var (
		tasksFile = cfg.TasksFile
		lock      = cfg.Lock
		logLevel  = cfg.LogLevel
		logFormat = cfg.LogFormat
		logFile   = cfg.LogFile
	)
	fs.StringVar(&tasksFile, "file", tasksFile, "Path to the tasks file")
	fs.BoolVar(&lock, "lock", lock, "Take an advisory lock around each command")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", logFormat, "Log format (text, json, logfmt)")
	fs.StringVar(&logFile, "log-file", logFile, "Append logs to this file instead of stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagFields[f.Name]
		if !ok {
			return
		}
		sources[field] = SourceFlag
		switch f.Name {
		case "file":
			cfg.TasksFile = tasksFile
		case "lock":
			cfg.Lock = lock
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-format":
			cfg.LogFormat = logFormat
		case "log-file":
			cfg.LogFile = logFile
		}
	})
	return nil
}
