// ABOUTME: Unix process-group handling and shell launch for native hooks
// ABOUTME: Detached hooks get their own group; cancellation SIGKILLs the group

//go:build unix

package hooks

import (
	"os/exec"
	"syscall"
)

// setProcGroup configures the command to run in its own process group.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcGroup kills the entire process group of the command.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return nil
}

// shellCommand runs path through /bin/sh. The path travels as $0 so it
// never needs quoting; exec replaces the shell with the hook.
func shellCommand(path string, args []string) (string, []string) {
	return "/bin/sh", append([]string{"-c", `exec "$0" "$@"`, path}, args...)
}
