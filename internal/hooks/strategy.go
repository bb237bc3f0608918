// ABOUTME: Platform execution strategies: native executables vs PowerShell scripts
// ABOUTME: One place decides hook file naming, enablement, launching, and toggling

package hooks

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/mauromedda/pi-hooks-go/internal/powershell"
)

// Strategy captures everything that differs between the executable-bit
// platforms and the interpreter-mediated one.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// HookFileName is the only file name considered for t.
	HookFileName(t HookType) string
	// IsUsable reports whether an existing hook file is enabled.
	IsUsable(path string) bool
	// LaunchConfig builds the launch parameters for a hook file.
	LaunchConfig(ctx context.Context, path string) (LaunchConfig, error)
	// SetEnabled flips a hook's enablement. Strategies that cannot
	// toggle return false and leave the file untouched.
	SetEnabled(path string, enabled bool) (bool, error)
	// IsWindows reports whether this is the interpreter-mediated strategy.
	IsWindows() bool
}

// NativeStrategy runs extensionless executables; the execute bit is the
// enabled flag.
type NativeStrategy struct{}

func (NativeStrategy) Name() string { return "native" }

func (NativeStrategy) HookFileName(t HookType) string { return string(t) }

func (NativeStrategy) IsUsable(path string) bool { return isExecutable(path) }

func (NativeStrategy) LaunchConfig(ctx context.Context, path string) (LaunchConfig, error) {
	return BuildLaunchConfig(ctx, path, nil)
}

func (NativeStrategy) SetEnabled(path string, enabled bool) (bool, error) {
	mode := os.FileMode(0o644)
	if enabled {
		mode = 0o755
	}
	if err := os.Chmod(path, mode); err != nil {
		return false, fmt.Errorf("chmod %s: %w", path, err)
	}
	return true, nil
}

func (NativeStrategy) IsWindows() bool { return false }

// InterpreterStrategy runs <HookType>.ps1 scripts through PowerShell.
// There is no enabled flag: an existing script is always usable, and the
// only way to disable one is to remove it.
type InterpreterStrategy struct {
	Resolve ResolveFunc
}

func (InterpreterStrategy) Name() string { return "powershell" }

func (InterpreterStrategy) HookFileName(t HookType) string { return string(t) + scriptExt }

func (InterpreterStrategy) IsUsable(string) bool { return true }

func (s InterpreterStrategy) LaunchConfig(ctx context.Context, path string) (LaunchConfig, error) {
	return BuildLaunchConfig(ctx, path, s.Resolve)
}

func (InterpreterStrategy) SetEnabled(string, bool) (bool, error) { return false, nil }

func (InterpreterStrategy) IsWindows() bool { return true }

// DefaultStrategy picks the strategy for the running OS.
func DefaultStrategy(r *powershell.Resolver) Strategy {
	return StrategyFor(runtime.GOOS, r)
}

// StrategyFor picks the strategy for goos.
func StrategyFor(goos string, r *powershell.Resolver) Strategy {
	if goos != "windows" {
		return NativeStrategy{}
	}
	if r == nil {
		r = powershell.New()
	}
	return InterpreterStrategy{Resolve: r.Resolve}
}
