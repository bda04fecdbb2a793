// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// loadConfig returns just the effective config.
func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// isolate points HOME and XDG_CONFIG_HOME at temp dirs, clears TASK_CLI_*
// variables, and changes into a fresh project directory.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	root := t.TempDir()
	home = filepath.Join(root, "home")
	project = filepath.Join(root, "project")
	for _, dir := range []string{home, project} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, env := range []string{
		EnvTasksFile, EnvAtomicWrite, EnvLock, EnvLockTimeout,
		EnvLogLevel, EnvLogFormat, EnvLogTimestamps, EnvLogCaller, EnvLogFile,
	} {
		t.Setenv(env, "")
	}
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	// Resolve symlinks (macOS /var -> /private/var) so path comparisons hold.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return home, wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.TasksFile != DefaultTasksFile {
		t.Errorf("TasksFile: got %q, want %q", cfg.TasksFile, DefaultTasksFile)
	}
	if !cfg.AtomicWrite {
		t.Error("AtomicWrite: got false, want true")
	}
	if cfg.Lock {
		t.Error("Lock: got true, want false")
	}
	if cfg.LockTimeoutMillis != DefaultLockTimeoutMillis {
		t.Errorf("LockTimeoutMillis: got %d, want %d", cfg.LockTimeoutMillis, DefaultLockTimeoutMillis)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: got %q, want warn", cfg.LogLevel)
	}
	if got := cfg.LockTimeout().Milliseconds(); got != DefaultLockTimeoutMillis {
		t.Errorf("LockTimeout: got %dms, want %dms", got, DefaultLockTimeoutMillis)
	}
}

func TestLoadDefaults(t *testing.T) {
	_, project := isolate(t)

	fs := newFlagSet()
	cws, err := LoadWithSources(fs, []string{"list", "done"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}

	want := filepath.Join(project, DefaultTasksFile)
	if cws.Config.TasksFile != want {
		t.Errorf("TasksFile: got %q, want %q", cws.Config.TasksFile, want)
	}
	for _, field := range Fields() {
		if cws.Sources[field] != SourceDefault {
			t.Errorf("source of %s: got %q, want default", field, cws.Sources[field])
		}
	}
	if len(cws.Files) != 0 {
		t.Errorf("Files: got %v, want none", cws.Files)
	}
	if args := fs.Args(); len(args) != 2 || args[0] != "list" || args[1] != "done" {
		t.Errorf("remaining args: got %v", args)
	}
}

func TestLoadPriority(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".task-cli", ConfigFileName), `
tasks_file = "user.json"
lock = true
log_level = "info"
`)
	writeFile(t, filepath.Join(project, ConfigFileName), `
tasks_file = "project.json"
`)

	t.Run("project file overrides user file", func(t *testing.T) {
		cws, err := LoadWithSources(newFlagSet(), nil)
		if err != nil {
			t.Fatalf("LoadWithSources: %v", err)
		}
		cfg := cws.Config
		if cfg.TasksFile != filepath.Join(project, "project.json") {
			t.Errorf("TasksFile: got %q", cfg.TasksFile)
		}
		if !cfg.Lock {
			t.Error("Lock: want true from user file")
		}
		if cws.Sources["tasks_file"] != SourceProjFile {
			t.Errorf("tasks_file source: got %q", cws.Sources["tasks_file"])
		}
		if cws.Sources["lock"] != SourceUserFile {
			t.Errorf("lock source: got %q", cws.Sources["lock"])
		}
		if cws.Sources["atomic_write"] != SourceDefault {
			t.Errorf("atomic_write source: got %q", cws.Sources["atomic_write"])
		}
		if len(cws.Files) != 2 {
			t.Errorf("Files: got %v, want 2", cws.Files)
		}
		if got := cws.GetConfigFile(); filepath.Base(got) != ConfigFileName || filepath.Dir(got) != project {
			t.Errorf("GetConfigFile: got %q", got)
		}
	})

	t.Run("environment overrides files", func(t *testing.T) {
		t.Setenv(EnvTasksFile, "env.json")
		t.Setenv(EnvLock, "off")
		t.Setenv(EnvLockTimeout, "150")

		cws, err := LoadWithSources(newFlagSet(), nil)
		if err != nil {
			t.Fatalf("LoadWithSources: %v", err)
		}
		cfg := cws.Config
		if cfg.TasksFile != filepath.Join(project, "env.json") {
			t.Errorf("TasksFile: got %q", cfg.TasksFile)
		}
		if cfg.Lock {
			t.Error("Lock: want false from environment")
		}
		if cfg.LockTimeoutMillis != 150 {
			t.Errorf("LockTimeoutMillis: got %d, want 150", cfg.LockTimeoutMillis)
		}
		if cws.Sources["tasks_file"] != SourceEnv {
			t.Errorf("tasks_file source: got %q", cws.Sources["tasks_file"])
		}
	})

	t.Run("flags override everything", func(t *testing.T) {
		t.Setenv(EnvTasksFile, "env.json")

		fs := newFlagSet()
		cws, err := LoadWithSources(fs, []string{"-file", "flag.json", "-log-level", "debug", "add", "x"})
		if err != nil {
			t.Fatalf("LoadWithSources: %v", err)
		}
		cfg := cws.Config
		if cfg.TasksFile != filepath.Join(project, "flag.json") {
			t.Errorf("TasksFile: got %q", cfg.TasksFile)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
		}
		if cws.Sources["tasks_file"] != SourceFlag || cws.Sources["log_level"] != SourceFlag {
			t.Errorf("sources: got %v", cws.Sources)
		}
		if args := fs.Args(); len(args) != 2 || args[0] != "add" {
			t.Errorf("remaining args: got %v", args)
		}
	})
}

func TestLoadDotConfigFile(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, "."+ConfigFileName), `atomic_write = false`)

	cfg, err := loadConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AtomicWrite {
		t.Error("AtomicWrite: want false from .task-cli.toml")
	}
}

func TestLoadXDGConfig(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is linux/BSD only")
	}
	home, project := isolate(t)
	writeFile(t, filepath.Join(home, ".config", AppName, ConfigFileName), `tasks_file = "xdg.json"`)

	cfg, err := loadConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TasksFile != filepath.Join(project, "xdg.json") {
		t.Errorf("TasksFile: got %q", cfg.TasksFile)
	}
}

func TestLoadUnknownKeyWarns(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ConfigFileName), "tasks_file = \"a.json\"\nmax_iterations = 3\n")

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if len(cws.Warnings) != 1 || !strings.Contains(cws.Warnings[0], "max_iterations") {
		t.Errorf("Warnings: got %v", cws.Warnings)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{name: "malformed toml", file: "tasks_file = ", wantErr: "loading project config file"},
		{name: "bad log level", args: []string{"-log-level", "loud"}, wantErr: "invalid log_level"},
		{name: "bad log format", file: `log_format = "xml"`, wantErr: "invalid log_format"},
		{name: "negative lock timeout", file: "lock_timeout_ms = -1", wantErr: "lock_timeout_ms"},
		{name: "empty tasks file", file: `tasks_file = " "`, wantErr: "tasks_file cannot be empty"},
		{name: "bad env bool", env: map[string]string{EnvLock: "maybe"}, wantErr: EnvLock},
		{name: "bad env int", env: map[string]string{EnvLockTimeout: "soon"}, wantErr: EnvLockTimeout},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "parsing flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, project := isolate(t)
			if tt.file != "" {
				writeFile(t, filepath.Join(project, ConfigFileName), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(newFlagSet(), tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"TRUE", true, false},
		{"yes", true, false},
		{"on", true, false},
		{"0", false, false},
		{"false", false, false},
		{" no ", false, false},
		{"off", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := boolFromString(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("boolFromString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("boolFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := isolate(t)
	t.Setenv("TASK_DIR", "/srv/tasks")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/tasks.json", filepath.Join(home, "tasks.json")},
		{"$TASK_DIR/tasks.json", "/srv/tasks/tasks.json"},
		{"${TASK_DIR}/work.json", "/srv/tasks/work.json"},
		{"~other/tasks.json", "~other/tasks.json"},
		{"notes/~/tasks.json", "notes/~/tasks.json"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExampleConfigParses(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ConfigFileName), ExampleConfig())

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if len(cws.Warnings) != 0 {
		t.Errorf("example config warnings: %v", cws.Warnings)
	}
	if cws.Config.Value("lock_timeout_ms") != "2000" {
		t.Errorf("lock_timeout_ms: got %q", cws.Config.Value("lock_timeout_ms"))
	}
}
