// ABOUTME: Suppresses the console window of probe processes on Windows
// ABOUTME: Probes run on every first script launch and must not flash a window

//go:build windows

package powershell

import (
	"os/exec"
	"syscall"
)

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
