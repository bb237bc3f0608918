// ABOUTME: "list" prints every hook file present, enabled or not, per location
// ABOUTME: Styled with lipgloss on a terminal; plain text or --json otherwise

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mauromedda/pi-hooks-go/internal/hooks"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pathStyle     = lipgloss.NewStyle().Faint(true)
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List global and workspace hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, err := a.engine()
			if err != nil {
				return err
			}
			inv, err := e.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.stdout, inv)
			}
			renderInventory(a.stdout, inv, e.Discovery().GlobalDir(), isTerminal(a.stdout))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderInventory(w io.Writer, inv *hooks.HooksToggles, globalDir string, styled bool) {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", paint(headerStyle, "Global"), paint(pathStyle, globalDir))
	writeHookLines(&b, inv.GlobalHooks, paint)
	for _, ws := range inv.WorkspaceHooks {
		fmt.Fprintf(&b, "\n%s\n", paint(headerStyle, "Workspace "+ws.WorkspaceName))
		writeHookLines(&b, ws.Hooks, paint)
	}
	if inv.IsWindows {
		b.WriteString("\nPowerShell hooks cannot be disabled; remove the .ps1 file instead.\n")
	}
	io.WriteString(w, b.String())
}

func writeHookLines(b *strings.Builder, infos []hooks.HookInfo, paint func(lipgloss.Style, string) string) {
	if len(infos) == 0 {
		fmt.Fprintf(b, "  %s\n", paint(disabledStyle, "(no hooks)"))
		return
	}
	for _, h := range infos {
		mark := paint(enabledStyle, "on ")
		if !h.Enabled {
			mark = paint(disabledStyle, "off")
		}
		fmt.Fprintf(b, "  %s  %-16s %s\n", mark, h.Name, paint(pathStyle, h.AbsolutePath))
	}
}
