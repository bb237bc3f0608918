// ABOUTME: Execute-permission check for native hooks via access(2)
// ABOUTME: Honours the effective user, so root still needs an execute bit

//go:build unix

package hooks

import "golang.org/x/sys/unix"

// isExecutable reports whether the current user may execute path.
func isExecutable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}
