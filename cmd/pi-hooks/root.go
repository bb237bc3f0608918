// ABOUTME: Root command, persistent flags, and engine construction from settings
// ABOUTME: Flags override config files; config files override built-in defaults

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/eventbus"
	"github.com/mauromedda/pi-hooks-go/internal/hooks"
	pilog "github.com/mauromedda/pi-hooks-go/internal/log"
	"github.com/mauromedda/pi-hooks-go/internal/powershell"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

// app holds the parsed persistent flags shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	workspaces []string
	globalDir  string
	verbose    bool

	// reportMu serialises event lines from concurrently running hooks.
	reportMu sync.Mutex
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "pi-hooks",
		Short: "Run lifecycle hooks for a coding agent",
		Long: `pi-hooks discovers and runs user-supplied hook programs.

Hooks live in a global directory (~/Documents/Cline/Hooks by default) and in
<workspace>/.clinerules/hooks. Each hook is an executable named after its hook
type (PreToolUse, TaskStart, ...), or a <HookType>.ps1 script on Windows.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("pi-hooks {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.pi-hooks/config.yaml)")
	flags.StringArrayVar(&a.workspaces, "workspace", nil, "workspace root; repeat for multi-root (default: working directory)")
	flags.StringVar(&a.globalDir, "global-dir", "", "global hooks directory")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log hook activity to stderr")

	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newListCmd(a),
		newToggleCmd(a),
		newInterpreterCmd(a),
	)
	return root
}

// roots returns the absolute workspace roots from flags, then settings,
// falling back to the working directory.
func (a *app) roots(s *config.Settings) ([]string, error) {
	src := a.workspaces
	if len(src) == 0 && s != nil {
		src = s.Workspaces
	}
	if len(src) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		return []string{cwd}, nil
	}
	return config.AbsWorkspaces(src)
}

// settings loads config files using the primary workspace as project root.
func (a *app) settings() (config.Settings, []string, error) {
	roots, err := a.roots(nil)
	if err != nil {
		return config.Settings{}, nil, err
	}

	globalFile := a.configPath
	if globalFile == "" {
		globalFile = config.GlobalConfigFile()
	}
	s, err := config.LoadFrom(globalFile, roots[0])
	if err != nil {
		return config.Settings{}, nil, err
	}
	if len(a.workspaces) == 0 && len(s.Workspaces) > 0 {
		if roots, err = a.roots(s); err != nil {
			return config.Settings{}, nil, err
		}
	}
	if a.globalDir != "" {
		s.GlobalHooksDir = a.globalDir
	}
	return s.WithDefaults(), roots, nil
}

// engine builds a hook engine from flags and config files.
func (a *app) engine() (*hooks.Engine, config.Settings, error) {
	s, roots, err := a.settings()
	if err != nil {
		return nil, config.Settings{}, err
	}

	switch {
	case a.verbose:
		pilog.SetLevel(slog.LevelDebug)
	case s.LogLevel != "":
		pilog.SetLevel(pilog.ParseLevel(s.LogLevel))
	}

	resolver := powershell.New(powershell.WithProbeTimeout(s.ProbeTimeout))
	opts := []hooks.Option{
		hooks.WithGlobalDir(s.GlobalHooksDir),
		hooks.WithWorkspaces(workspace.Static(roots)),
		hooks.WithResolver(resolver),
		hooks.WithTimeout(s.HookTimeout),
		hooks.WithMaxOutputBytes(s.MaxOutputBytes),
		hooks.WithVersion(version),
		hooks.WithEnv(s.Env),
	}
	if err := config.EnsureDir(config.GlobalDir()); err == nil {
		opts = append(opts, hooks.WithLockPath(config.LockFile()))
	}
	if a.verbose {
		bus := eventbus.New()
		bus.Subscribe(a.reportEvent)
		opts = append(opts, hooks.WithEventBus(bus))
	}
	return hooks.New(opts...), s, nil
}

func (a *app) reportEvent(ev eventbus.Event) {
	a.reportMu.Lock()
	defer a.reportMu.Unlock()
	switch ev.Kind {
	case eventbus.HookStarted:
		fmt.Fprintf(a.stderr, "-> %s %s\n", ev.HookType, ev.Path)
	case eventbus.HookFinished:
		fmt.Fprintf(a.stderr, "<- %s %s ok in %v (cancel=%v)\n", ev.HookType, ev.Path, ev.Duration, ev.Cancel)
	case eventbus.HookFailed:
		fmt.Fprintf(a.stderr, "!! %s %s failed after %v: %v\n", ev.HookType, ev.Path, ev.Duration, ev.Err)
	}
}
