// ABOUTME: Environment variable expansion in config string fields
// ABOUTME: Replaces ${VAR} patterns with os.Getenv values; unset vars become empty

package config

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ResolveEnvVars expands ${VAR} patterns in path-like fields of Settings.
func ResolveEnvVars(s *Settings) {
	s.GlobalHooksDir = expandEnv(s.GlobalHooksDir)
	s.LogLevel = expandEnv(s.LogLevel)

	for i, w := range s.Workspaces {
		s.Workspaces[i] = expandEnv(w)
	}
	for k, v := range s.Env {
		s.Env[k] = expandEnv(v)
	}
}

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
