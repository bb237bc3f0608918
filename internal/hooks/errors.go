// ABOUTME: Error taxonomy for discovery and execution of hooks
// ABOUTME: Sentinels for lookup failures; HookExecutionError for process failures

package hooks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownHookType is returned for names outside the closed hook set.
	ErrUnknownHookType = errors.New("unknown hook type")

	// ErrWorkspaceNotFound means no workspace root matched the requested name.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrHookNotFound means a toggle targeted a hook file that does not exist.
	ErrHookNotFound = errors.New("hook not found")

	// ErrPayloadMismatch means the input carries another hook type's payload.
	ErrPayloadMismatch = errors.New("payload does not match hook type")

	// ErrOutputTooLarge means the hook wrote more than the stdout ceiling.
	ErrOutputTooLarge = errors.New("hook output exceeds size limit")

	// ErrNoInterpreter means a script hook was found but no interpreter
	// resolver is configured to launch it.
	ErrNoInterpreter = errors.New("no interpreter configured for script hook")
)

// HookExecutionError reports a hook process that could not be started,
// exited nonzero, timed out, or overflowed its output limit.
type HookExecutionError struct {
	HookType HookType
	Path     string
	// ExitCode is the process exit code, or -1 if it never exited normally.
	ExitCode int
	// Stderr holds the tail of the process's standard error.
	Stderr string
	Err    error
}

func (e *HookExecutionError) Error() string {
	var b strings.Builder
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, "%s hook exited with code %d", e.HookType, e.ExitCode)
	} else {
		fmt.Fprintf(&b, "%s hook failed: %v", e.HookType, e.Err)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *HookExecutionError) Unwrap() error { return e.Err }
