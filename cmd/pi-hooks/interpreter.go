// ABOUTME: "interpreter" prints the PowerShell executable used for .ps1 hooks
// ABOUTME: Runs the same probe sequence the engine uses on first script launch

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInterpreterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interpreter",
		Short: "Show the resolved PowerShell interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, err := a.engine()
			if err != nil {
				return err
			}
			path, err := e.Resolver().Resolve(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
}
