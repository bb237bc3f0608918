// ABOUTME: Engine wires strategy, discovery, cache, runner, and factory together
// ABOUTME: Each Engine owns its caches, so instances never share state

package hooks

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/eventbus"
	"github.com/mauromedda/pi-hooks-go/internal/log"
	"github.com/mauromedda/pi-hooks-go/internal/powershell"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

// Engine is the entry point used by the agent runtime.
type Engine struct {
	strategy  Strategy
	resolver  *powershell.Resolver
	discovery *Discovery
	cache     *DiscoveryCache
	runner    *ProcessRunner
	factory   *Factory
	bus       *eventbus.Bus
	lockPath  string
}

type engineOptions struct {
	globalDir  string
	workspaces workspace.Provider
	strategy   Strategy
	resolver   *powershell.Resolver
	timeout    time.Duration
	maxOutput  int64
	version    string
	bus        *eventbus.Bus
	lockPath   string
	env        map[string]string
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithGlobalDir overrides the global hooks directory.
func WithGlobalDir(dir string) Option {
	return func(o *engineOptions) { o.globalDir = dir }
}

// WithWorkspaces sets the workspace-root enumerator.
func WithWorkspaces(p workspace.Provider) Option {
	return func(o *engineOptions) { o.workspaces = p }
}

// WithStrategy forces a platform strategy instead of detecting it.
func WithStrategy(s Strategy) Option {
	return func(o *engineOptions) { o.strategy = s }
}

// WithResolver supplies the PowerShell resolver.
func WithResolver(r *powershell.Resolver) Option {
	return func(o *engineOptions) { o.resolver = r }
}

// WithTimeout sets the per-hook timeout; 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.timeout = d }
}

// WithMaxOutputBytes caps hook stdout.
func WithMaxOutputBytes(n int64) Option {
	return func(o *engineOptions) { o.maxOutput = n }
}

// WithVersion sets the clineVersion sent to hooks.
func WithVersion(v string) Option {
	return func(o *engineOptions) { o.version = v }
}

// WithEventBus publishes hook process events to bus.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(o *engineOptions) { o.bus = bus }
}

// WithLockPath sets the file used to serialise toggles across processes.
func WithLockPath(path string) Option {
	return func(o *engineOptions) { o.lockPath = path }
}

// WithEnv adds environment variables to every hook process.
func WithEnv(vars map[string]string) Option {
	return func(o *engineOptions) { o.env = vars }
}

// New builds an Engine.
func New(opts ...Option) *Engine {
	o := engineOptions{
		timeout:  DefaultTimeout,
		version:  "dev",
		lockPath: filepath.Join(os.TempDir(), "pi-hooks-toggle.lock"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = powershell.New()
	}
	if o.strategy == nil {
		o.strategy = DefaultStrategy(o.resolver)
	}

	d := NewDiscovery(o.strategy, o.globalDir, o.workspaces)
	cache := NewDiscoveryCache(d)
	runner := NewProcessRunner(o.strategy, o.timeout, o.maxOutput, o.bus)
	if len(o.env) > 0 {
		runner.SetEnv(o.env)
	}

	log.Debug("hooks: engine using %s strategy, global dir %s", o.strategy.Name(), d.GlobalDir())
	return &Engine{
		strategy:  o.strategy,
		resolver:  o.resolver,
		discovery: d,
		cache:     cache,
		runner:    runner,
		factory:   NewFactory(cache, runner, o.version),
		bus:       o.bus,
		lockPath:  o.lockPath,
	}
}

// CreateRunner returns a Runnable for t.
func (e *Engine) CreateRunner(ctx context.Context, t HookType) (Runnable, error) {
	return e.factory.Create(ctx, t)
}

// Run is CreateRunner followed by Run.
func (e *Engine) Run(ctx context.Context, t HookType, in Input) (Response, error) {
	r, err := e.CreateRunner(ctx, t)
	if err != nil {
		return Response{}, err
	}
	return r.Run(ctx, in)
}

// InvalidateCache forgets all discovery results.
func (e *Engine) InvalidateCache() { e.cache.InvalidateAll() }

// Discovery exposes the engine's discovery.
func (e *Engine) Discovery() *Discovery { return e.discovery }

// Strategy exposes the engine's platform strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Resolver exposes the engine's PowerShell resolver.
func (e *Engine) Resolver() *powershell.Resolver { return e.resolver }

// Watch polls every hooks directory and invalidates the cache when one
// changes. The directory set is re-read from the workspace provider on
// each poll, so roots added later are watched too. The returned function
// stops the watcher.
func (e *Engine) Watch(ctx context.Context, interval time.Duration) (func(), error) {
	initial, err := e.watchDirs(ctx)
	if err != nil {
		return nil, err
	}

	last := initial
	dirs := func() []string {
		current, err := e.watchDirs(ctx)
		if err != nil {
			log.Debug("hooks: watch keeps previous directories: %v", err)
			return last
		}
		last = current
		return current
	}

	w := config.NewDynamicWatcher(dirs, func() {
		log.Debug("hooks: hooks directory changed, invalidating discovery cache")
		e.cache.InvalidateAll()
	})
	if interval > 0 {
		w.SetInterval(interval)
	}
	w.Start()
	return w.Stop, nil
}

func (e *Engine) watchDirs(ctx context.Context) ([]string, error) {
	locs, err := e.discovery.Locations(ctx)
	if err != nil {
		return nil, err
	}
	dirs := make([]string, len(locs))
	for i, l := range locs {
		dirs[i] = l.Dir
	}
	return dirs, nil
}
