// ABOUTME: Builds runnable hooks for a hook type from discovered files
// ABOUTME: No files gives a no-op runner; several run concurrently and combine

package hooks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runnable runs every hook behind it once and returns the combined verdict.
type Runnable interface {
	Run(ctx context.Context, in Input) (Response, error)
}

// Factory creates Runnables.
type Factory struct {
	cache   *DiscoveryCache
	runner  *ProcessRunner
	version string
	now     func() time.Time
}

// NewFactory creates a factory that discovers through cache and executes
// through runner. version is sent as clineVersion in every request.
func NewFactory(cache *DiscoveryCache, runner *ProcessRunner, version string) *Factory {
	return &Factory{cache: cache, runner: runner, version: version, now: time.Now}
}

// Create discovers the hook files for t. Discovery errors (such as an
// unreadable workspace list) are returned; missing hooks are not errors.
func (f *Factory) Create(ctx context.Context, t HookType) (Runnable, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHookType, string(t))
	}
	if !HooksEnabled() {
		return NoopRunner{HookType: t}, nil
	}

	refs, err := f.cache.Find(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("discover %s hooks: %w", t, err)
	}
	if len(refs) == 0 {
		return NoopRunner{HookType: t}, nil
	}

	roots, err := f.cache.Discovery().WorkspaceRoots(ctx)
	if err != nil {
		return nil, err
	}
	return &CombinedRunner{
		hookType: t,
		refs:     refs,
		roots:    roots,
		factory:  f,
	}, nil
}

// NoopRunner stands in when no hook file exists. It spawns nothing.
type NoopRunner struct {
	HookType HookType
}

// Run validates in and returns the allow verdict.
func (n NoopRunner) Run(_ context.Context, in Input) (Response, error) {
	if err := in.validateFor(n.HookType); err != nil {
		return Response{}, err
	}
	return Response{}, nil
}

// CombinedRunner runs one process per discovered hook file.
type CombinedRunner struct {
	hookType HookType
	refs     []HookFileRef
	roots    []string
	factory  *Factory
}

// HookFiles returns the files this runner executes.
func (c *CombinedRunner) HookFiles() []HookFileRef {
	return cloneRefs(c.refs)
}

// Run starts every hook concurrently and waits for all of them. If any
// fails, Run returns that failure and the remaining processes are killed;
// results from hooks that succeeded are discarded.
func (c *CombinedRunner) Run(ctx context.Context, in Input) (Response, error) {
	if err := in.validateFor(c.hookType); err != nil {
		return Response{}, err
	}

	req := newRequest(c.hookType, c.factory.version, c.factory.now(), c.roots, in)
	results := make([]Response, len(c.refs))

	g, gCtx := errgroup.WithContext(ctx)
	for i, ref := range c.refs {
		g.Go(func() error {
			resp, err := c.factory.runner.Run(gCtx, ref, req)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Response{}, err
	}
	return combine(results), nil
}
