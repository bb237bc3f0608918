// ABOUTME: Hook-type argument parsing with "did you mean" suggestions
// ABOUTME: Ranks known hook names against the typo with sahilm/fuzzy

package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mauromedda/pi-hooks-go/internal/hooks"
)

// parseHookArg validates a hook-type argument. Unknown names get the
// closest known name appended to the error.
func parseHookArg(name string) (hooks.HookType, error) {
	t, err := hooks.ParseHookType(name)
	if err == nil {
		return t, nil
	}
	if s := suggestHookType(name); s != "" {
		return "", fmt.Errorf("%w (did you mean %s?)", err, s)
	}
	return "", fmt.Errorf("%w (valid: %s)", err, strings.Join(hookNames(), ", "))
}

// suggestHookType returns the known hook type closest to name, or "".
func suggestHookType(name string) string {
	if name == "" {
		return ""
	}
	names := hookNames()
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func hookNames() []string {
	all := hooks.AllHookTypes()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = string(t)
	}
	return names
}
