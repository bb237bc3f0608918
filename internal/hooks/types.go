// ABOUTME: Hook lifecycle types: the closed set of hook names and file references
// ABOUTME: A HookType is both the hook's filename stem and its dispatch key

package hooks

import (
	"fmt"
	"strings"
)

// HookType identifies a lifecycle point at which hooks run.
type HookType string

const (
	TaskStart        HookType = "TaskStart"
	TaskResume       HookType = "TaskResume"
	TaskCancel       HookType = "TaskCancel"
	TaskComplete     HookType = "TaskComplete"
	PreToolUse       HookType = "PreToolUse"
	PostToolUse      HookType = "PostToolUse"
	UserPromptSubmit HookType = "UserPromptSubmit"
	PreCompact       HookType = "PreCompact"
)

var allHookTypes = []HookType{
	TaskStart,
	TaskResume,
	TaskCancel,
	TaskComplete,
	PreToolUse,
	PostToolUse,
	UserPromptSubmit,
	PreCompact,
}

// AllHookTypes returns every hook type in declaration order.
func AllHookTypes() []HookType {
	out := make([]HookType, len(allHookTypes))
	copy(out, allHookTypes)
	return out
}

// IsValid reports whether t is a known hook type.
func (t HookType) IsValid() bool {
	for _, v := range allHookTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t HookType) String() string { return string(t) }

// payloadKey is the JSON key of this type's payload in a request,
// e.g. "preToolUse" for PreToolUse.
func (t HookType) payloadKey() string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ParseHookType validates name against the known hook types.
func ParseHookType(name string) (HookType, error) {
	t := HookType(name)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownHookType, name)
	}
	return t, nil
}

// HookFileRef is a discovered hook file and where it came from.
type HookFileRef struct {
	HookType HookType
	Path     string
	Global   bool
	// WorkspaceName is the base name of the owning workspace root;
	// empty for global hooks.
	WorkspaceName string
	// WorkDir is the directory the hook process starts in: its workspace
	// root, or the primary workspace root for global hooks.
	WorkDir string
}

// Source describes the ref's location for logs and errors.
func (r HookFileRef) Source() string {
	if r.Global {
		return "global"
	}
	return "workspace " + r.WorkspaceName
}
