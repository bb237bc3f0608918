// ABOUTME: Public SDK for embedding the hook engine in an agent runtime
// ABOUTME: Wraps internal/hooks with functional options, event listeners, and typed helpers

package sdk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/eventbus"
	"github.com/mauromedda/pi-hooks-go/internal/hooks"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

// Re-exported engine types so callers need only this package.
type (
	HookType           = hooks.HookType
	Input              = hooks.Input
	Response           = hooks.Response
	PreToolUseData     = hooks.PreToolUseData
	PostToolUseData    = hooks.PostToolUseData
	TaskMetadata       = hooks.TaskMetadata
	HooksToggles       = hooks.HooksToggles
	ToggleRequest      = hooks.ToggleRequest
	Event              = eventbus.Event
	HookExecutionError = hooks.HookExecutionError
)

const (
	TaskStart        = hooks.TaskStart
	TaskResume       = hooks.TaskResume
	TaskCancel       = hooks.TaskCancel
	TaskComplete     = hooks.TaskComplete
	PreToolUse       = hooks.PreToolUse
	PostToolUse      = hooks.PostToolUse
	UserPromptSubmit = hooks.UserPromptSubmit
	PreCompact       = hooks.PreCompact
)

// ErrClosed is returned by calls on a closed Client.
var ErrClosed = errors.New("sdk: client closed")

// Client runs hooks on behalf of an agent runtime.
type Client struct {
	engine *hooks.Engine
	bus    *eventbus.Bus
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	watch func()
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	globalDir   string
	roots       []string
	provider    workspace.Provider
	timeout     *time.Duration
	maxOutput   int64
	version     string
	env         map[string]string
	watch       time.Duration
	settingsDir string
}

// WithGlobalDir overrides the global hooks directory.
func WithGlobalDir(dir string) Option {
	return func(c *clientConfig) {
		c.globalDir = dir
	}
}

// WithWorkspaceRoots sets a fixed list of workspace roots, primary first.
func WithWorkspaceRoots(roots ...string) Option {
	return func(c *clientConfig) {
		c.roots = append([]string(nil), roots...)
	}
}

// WithWorkspaceFunc asks fn for the workspace roots on every discovery.
func WithWorkspaceFunc(fn func(ctx context.Context) ([]string, error)) Option {
	return func(c *clientConfig) {
		c.provider = workspace.Func(fn)
	}
}

// WithTimeout sets the per-hook timeout; 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = &d
	}
}

// WithMaxOutputBytes caps how much a hook may write to stdout.
func WithMaxOutputBytes(n int64) Option {
	return func(c *clientConfig) {
		c.maxOutput = n
	}
}

// WithVersion sets the runtime version reported to hooks.
func WithVersion(v string) Option {
	return func(c *clientConfig) {
		c.version = v
	}
}

// WithEnv adds environment variables to every hook process.
func WithEnv(env map[string]string) Option {
	return func(c *clientConfig) {
		c.env = env
	}
}

// WithWatch polls hook directories at interval so changes made outside
// the client are picked up.
func WithWatch(interval time.Duration) Option {
	return func(c *clientConfig) {
		c.watch = interval
	}
}

// WithSettings loads ~/.pi-hooks/config.yaml merged with the project's
// .clinerules/hooks.yaml as the base configuration. Explicit options win.
func WithSettings(projectRoot string) Option {
	return func(c *clientConfig) {
		c.settingsDir = projectRoot
	}
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if err := cfg.applySettings(); err != nil {
		return nil, err
	}

	bus := eventbus.New()
	engineOpts := []hooks.Option{
		hooks.WithGlobalDir(cfg.globalDir),
		hooks.WithEventBus(bus),
	}
	switch {
	case cfg.provider != nil:
		engineOpts = append(engineOpts, hooks.WithWorkspaces(cfg.provider))
	case len(cfg.roots) > 0:
		engineOpts = append(engineOpts, hooks.WithWorkspaces(workspace.Static(cfg.roots)))
	}
	if cfg.timeout != nil {
		engineOpts = append(engineOpts, hooks.WithTimeout(*cfg.timeout))
	}
	if cfg.maxOutput > 0 {
		engineOpts = append(engineOpts, hooks.WithMaxOutputBytes(cfg.maxOutput))
	}
	if cfg.version != "" {
		engineOpts = append(engineOpts, hooks.WithVersion(cfg.version))
	}
	if len(cfg.env) > 0 {
		engineOpts = append(engineOpts, hooks.WithEnv(cfg.env))
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		engine: hooks.New(engineOpts...),
		bus:    bus,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.watch > 0 {
		stop, err := c.engine.Watch(ctx, cfg.watch)
		if err != nil {
			cancel()
			return nil, err
		}
		c.watch = stop
	}
	return c, nil
}

func (cfg *clientConfig) applySettings() error {
	if cfg.settingsDir == "" {
		return nil
	}
	s, err := config.Load(cfg.settingsDir)
	if err != nil {
		return err
	}
	if cfg.globalDir == "" {
		cfg.globalDir = s.GlobalHooksDir
	}
	if len(cfg.roots) == 0 && cfg.provider == nil && len(s.Workspaces) > 0 {
		roots, err := config.AbsWorkspaces(s.Workspaces)
		if err != nil {
			return err
		}
		cfg.roots = roots
	}
	if cfg.timeout == nil {
		d := s.WithDefaults().HookTimeout
		cfg.timeout = &d
	}
	if cfg.maxOutput == 0 {
		cfg.maxOutput = s.MaxOutputBytes
	}
	if cfg.env == nil {
		cfg.env = s.Env
	}
	if cfg.watch == 0 && s.Watch {
		cfg.watch = s.WithDefaults().WatchInterval
	}
	return nil
}

// Run executes every enabled hook of type t. The run is cancelled if
// either ctx or the client (via Close) is done.
func (c *Client) Run(ctx context.Context, t HookType, in Input) (*Result, error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	runCtx, runCancel := context.WithCancel(c.ctx)
	defer runCancel()
	stop := context.AfterFunc(ctx, runCancel)
	defer stop()

	resp, err := c.engine.Run(runCtx, t, in)
	if err != nil {
		return nil, err
	}
	return &Result{Response: resp}, nil
}

// PreToolUse runs PreToolUse hooks for a tool call.
func (c *Client) PreToolUse(ctx context.Context, taskID, tool string, params map[string]any) (*Result, error) {
	return c.Run(ctx, PreToolUse, Input{
		TaskID:     taskID,
		PreToolUse: &hooks.PreToolUseData{ToolName: tool, Parameters: params},
	})
}

// PostToolUse runs PostToolUse hooks for a finished tool call.
func (c *Client) PostToolUse(ctx context.Context, taskID string, data PostToolUseData) (*Result, error) {
	return c.Run(ctx, PostToolUse, Input{TaskID: taskID, PostToolUse: &data})
}

// UserPromptSubmit runs UserPromptSubmit hooks for a prompt.
func (c *Client) UserPromptSubmit(ctx context.Context, taskID, prompt string, attachments []string) (*Result, error) {
	if attachments == nil {
		attachments = []string{}
	}
	return c.Run(ctx, UserPromptSubmit, Input{
		TaskID:           taskID,
		UserPromptSubmit: &hooks.UserPromptSubmitData{Prompt: prompt, Attachments: attachments},
	})
}

// Hooks lists the hook files present in every location.
func (c *Client) Hooks(ctx context.Context) (*HooksToggles, error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}
	return c.engine.Refresh(ctx)
}

// Toggle enables or disables a hook and returns the refreshed listing.
func (c *Client) Toggle(ctx context.Context, req ToggleRequest) (*HooksToggles, error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}
	return c.engine.Toggle(ctx, req)
}

// Invalidate forgets cached discovery results.
func (c *Client) Invalidate() {
	c.engine.InvalidateCache()
}

// OnEvent registers a listener for hook process events. Hooks run
// concurrently, so handler must be goroutine-safe. The returned function
// removes the listener.
func (c *Client) OnEvent(handler func(Event)) func() {
	return c.bus.Subscribe(handler)
}

// Close stops the watcher and cancels in-flight runs.
func (c *Client) Close() error {
	c.mu.Lock()
	stop := c.watch
	c.watch = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Result wraps a combined hook response with convenience methods.
type Result struct {
	Response
}

// Allowed reports whether no hook asked to cancel.
func (r *Result) Allowed() bool {
	return !r.Cancel
}

// Context returns the text hooks asked to add to the agent's context.
func (r *Result) Context() string {
	return r.ContextModification
}
