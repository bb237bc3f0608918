// ABOUTME: No-op window hiding for platforms without console windows
// ABOUTME: Counterpart of hide_windows.go

//go:build !windows

package powershell

import "os/exec"

func hideWindow(*exec.Cmd) {}
