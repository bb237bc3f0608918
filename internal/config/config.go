// ABOUTME: Engine settings loading with global + workspace YAML merge
// ABOUTME: Workspace values override global ones; defaults fill what both leave unset

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultHookTimeout    = 30 * time.Second
	DefaultProbeTimeout   = 1200 * time.Millisecond
	DefaultMaxOutputBytes = 1 << 20
	DefaultWatchInterval  = 2 * time.Second
)

// Settings holds the merged engine configuration.
type Settings struct {
	// GlobalHooksDir overrides the per-user global hooks directory.
	GlobalHooksDir string `yaml:"global_hooks_dir,omitempty"`
	// Workspaces lists workspace roots; empty means the working directory.
	Workspaces     []string      `yaml:"workspaces,omitempty"`
	HookTimeout    time.Duration `yaml:"hook_timeout,omitempty"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout,omitempty"`
	MaxOutputBytes int64         `yaml:"max_output_bytes,omitempty"`
	// DisableTimeout turns the per-hook timeout off entirely.
	DisableTimeout bool              `yaml:"disable_timeout,omitempty"`
	Watch          bool              `yaml:"watch,omitempty"`
	WatchInterval  time.Duration     `yaml:"watch_interval,omitempty"`
	LogLevel       string            `yaml:"log_level,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
}

// Load reads and merges global and workspace settings, expands ${VAR}
// references, and applies the environment override for the global dir.
func Load(projectRoot string) (*Settings, error) {
	return LoadFrom(GlobalConfigFile(), projectRoot)
}

// LoadFrom is Load with an explicit global config file.
func LoadFrom(globalFile, projectRoot string) (*Settings, error) {
	global, err := LoadFile(globalFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	project, err := LoadFile(ProjectConfigFile(projectRoot))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	merged := merge(global, project)
	ResolveEnvVars(merged)
	applyEnvOverrides(merged)
	return merged, nil
}

// LoadFile reads Settings from a YAML file. A missing file returns empty
// Settings and an error satisfying os.IsNotExist.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (s Settings) WithDefaults() Settings {
	if s.GlobalHooksDir == "" {
		s.GlobalHooksDir = DefaultGlobalHooksDir()
	}
	if s.HookTimeout == 0 {
		s.HookTimeout = DefaultHookTimeout
	}
	if s.DisableTimeout {
		s.HookTimeout = 0
	}
	if s.ProbeTimeout == 0 {
		s.ProbeTimeout = DefaultProbeTimeout
	}
	if s.MaxOutputBytes == 0 {
		s.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if s.WatchInterval == 0 {
		s.WatchInterval = DefaultWatchInterval
	}
	return s
}

// merge overlays project settings onto global settings.
// Non-zero project values override global values.
func merge(global, project *Settings) *Settings {
	if global == nil {
		global = &Settings{}
	}
	if project == nil {
		return global
	}

	result := *global

	if project.GlobalHooksDir != "" {
		result.GlobalHooksDir = project.GlobalHooksDir
	}
	if len(project.Workspaces) > 0 {
		result.Workspaces = append([]string(nil), project.Workspaces...)
	}
	if project.HookTimeout != 0 {
		result.HookTimeout = project.HookTimeout
	}
	if project.ProbeTimeout != 0 {
		result.ProbeTimeout = project.ProbeTimeout
	}
	if project.MaxOutputBytes != 0 {
		result.MaxOutputBytes = project.MaxOutputBytes
	}
	if project.DisableTimeout {
		result.DisableTimeout = true
	}
	if project.Watch {
		result.Watch = true
	}
	if project.WatchInterval != 0 {
		result.WatchInterval = project.WatchInterval
	}
	if project.LogLevel != "" {
		result.LogLevel = project.LogLevel
	}

	if len(project.Env) > 0 {
		env := make(map[string]string, len(result.Env)+len(project.Env))
		for k, v := range result.Env {
			env[k] = v
		}
		for k, v := range project.Env {
			env[k] = v
		}
		result.Env = env
	}

	return &result
}

func applyEnvOverrides(s *Settings) {
	if dir := os.Getenv(EnvGlobalHooksDir); dir != "" {
		s.GlobalHooksDir = dir
	}
}
