// ABOUTME: Execute-permission approximation on Windows
// ABOUTME: Only reached if the native strategy is forced on Windows

//go:build windows

package hooks

import "os"

// isExecutable approximates the execute bit from the file mode. Windows
// has no such bit; the interpreter strategy never calls this.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().Perm()&0o111 != 0
}
