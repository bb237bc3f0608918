// ABOUTME: Builds process-launch parameters for a resolved hook file
// ABOUTME: .ps1 scripts go through the PowerShell interpreter; everything else runs natively

package hooks

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const scriptExt = ".ps1"

// ResolveFunc returns the interpreter executable for script hooks.
type ResolveFunc func(ctx context.Context) (string, error)

// LaunchConfig describes how to start a hook process.
type LaunchConfig struct {
	Command string
	Args    []string
	// Shell launches Command through the system shell so the OS resolves
	// shebang lines.
	Shell bool
	// Detached puts the process in its own process group.
	Detached bool
}

// BuildLaunchConfig derives the launch parameters from the file itself.
// Resolver failures for script hooks are returned, not swallowed.
func BuildLaunchConfig(ctx context.Context, path string, resolve ResolveFunc) (LaunchConfig, error) {
	if !isScriptHook(path) {
		return LaunchConfig{
			Command:  path,
			Args:     []string{},
			Shell:    true,
			Detached: true,
		}, nil
	}

	if resolve == nil {
		return LaunchConfig{}, ErrNoInterpreter
	}
	interp, err := resolve(ctx)
	if err != nil {
		return LaunchConfig{}, fmt.Errorf("resolve interpreter: %w", err)
	}
	return LaunchConfig{
		Command: interp,
		Args: []string{
			"-NoProfile",
			"-NonInteractive",
			"-ExecutionPolicy", "Bypass",
			"-File", path,
		},
		Shell:    false,
		Detached: false,
	}, nil
}

func isScriptHook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), scriptExt)
}

// Cmd materialises the config into a command bound to ctx. Cancelling ctx
// kills the process, or its whole group when Detached.
func (lc LaunchConfig) Cmd(ctx context.Context) *exec.Cmd {
	var cmd *exec.Cmd
	if lc.Shell {
		name, args := shellCommand(lc.Command, lc.Args)
		cmd = exec.CommandContext(ctx, name, args...)
	} else {
		cmd = exec.CommandContext(ctx, lc.Command, lc.Args...)
	}

	if lc.Detached {
		setProcGroup(cmd)
		cmd.Cancel = func() error {
			return killProcGroup(cmd)
		}
	}
	// Grandchildren holding the pipes open must not block Wait forever.
	cmd.WaitDelay = 2 * time.Second
	return cmd
}
