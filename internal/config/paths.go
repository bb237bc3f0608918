// ABOUTME: Standard filesystem paths for hook directories and engine configuration
// ABOUTME: Global hooks live in ~/Documents/Cline/Hooks; workspace hooks in .clinerules/hooks

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	globalDirName = ".pi-hooks"

	// EnvGlobalHooksDir overrides the global hooks directory.
	EnvGlobalHooksDir = "PI_HOOKS_GLOBAL_DIR"
)

// GlobalDir returns the engine's own config directory (~/.pi-hooks/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigFile returns the path to a workspace's config file.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(projectRoot, ".clinerules", "hooks.yaml")
}

// LockFile returns the path of the cross-process toggle lock.
func LockFile() string {
	return filepath.Join(GlobalDir(), "toggle.lock")
}

// DefaultGlobalHooksDir returns the per-user global hooks directory.
func DefaultGlobalHooksDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "Documents", "Cline", "Hooks")
	}
	return filepath.Join(home, "Documents", "Cline", "Hooks")
}

// WorkspaceHooksDir returns the hooks directory of a workspace root.
func WorkspaceHooksDir(root string) string {
	return filepath.Join(root, ".clinerules", "hooks")
}

// AbsWorkspaces resolves workspace roots against the working directory.
func AbsWorkspaces(roots []string) ([]string, error) {
	out := make([]string, len(roots))
	for i, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace %s: %w", r, err)
		}
		out[i] = abs
	}
	return out, nil
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
