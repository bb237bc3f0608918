// ABOUTME: "toggle" enables or disables one hook file
// ABOUTME: Flips the execute bit on unix; a no-op for PowerShell scripts

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mauromedda/pi-hooks-go/internal/hooks"
)

func newToggleCmd(a *app) *cobra.Command {
	var (
		global        bool
		workspaceName string
		enabled       bool
	)

	cmd := &cobra.Command{
		Use:   "toggle <HookType>",
		Short: "Enable or disable a hook",
		Long: `Enable or disable a global or workspace hook. Without --global or
--workspace-name the primary workspace is used.

Examples:
  pi-hooks toggle PreToolUse --global --enabled=false
  pi-hooks toggle TaskStart --workspace-name api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseHookArg(args[0])
			if err != nil {
				return err
			}
			e, _, err := a.engine()
			if err != nil {
				return err
			}
			if e.Strategy().IsWindows() {
				fmt.Fprintln(a.stderr, "note: PowerShell hooks are always enabled; remove the file to disable it")
			}

			inv, err := e.Toggle(cmd.Context(), hooks.ToggleRequest{
				HookName:      t,
				IsGlobal:      global,
				Enabled:       enabled,
				WorkspaceName: workspaceName,
			})
			if err != nil {
				return err
			}
			renderInventory(a.stdout, inv, e.Discovery().GlobalDir(), isTerminal(a.stdout))
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "toggle the global hook")
	cmd.Flags().StringVar(&workspaceName, "workspace-name", "", "toggle the hook of the workspace with this base name")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "desired state")
	cmd.MarkFlagsMutuallyExclusive("global", "workspace-name")
	return cmd
}
