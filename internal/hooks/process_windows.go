// ABOUTME: Windows process handling for hooks; no process groups
// ABOUTME: Cancellation kills the direct child; shell launches go through cmd.exe

//go:build windows

package hooks

import (
	"os/exec"
	"syscall"
)

func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return nil
}

func shellCommand(path string, args []string) (string, []string) {
	return "cmd.exe", append([]string{"/d", "/c", path}, args...)
}
