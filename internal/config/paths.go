package config

import (
	"os"
	"path/filepath"
	"strings"
)

// expandPath resolves $VAR references and a leading ~ in a configured path.
// Paths whose home directory cannot be found are returned unexpanded.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)

	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && !isSeparator(rest[0])) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}

// isSeparator accepts '/' everywhere and '\' where the OS uses it.
func isSeparator(c byte) bool {
	return c == '/' || os.IsPathSeparator(c)
}
