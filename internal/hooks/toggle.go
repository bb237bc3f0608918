// ABOUTME: Enable/disable and status listing of hook files for display surfaces
// ABOUTME: Toggling flips the execute bit where supported and invalidates discovery

package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/log"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

const lockRetryDelay = 50 * time.Millisecond

// HooksEnabled reports whether hooks may run on this platform. Every
// supported platform runs hooks; callers gate on this one function.
func HooksEnabled() bool { return true }

// HookInfo describes one hook file present on disk.
type HookInfo struct {
	Name         HookType `json:"name"`
	Enabled      bool     `json:"enabled"`
	AbsolutePath string   `json:"absolutePath"`
}

// WorkspaceHooks lists the hooks of one workspace root.
type WorkspaceHooks struct {
	WorkspaceName string     `json:"workspaceName"`
	Hooks         []HookInfo `json:"hooks"`
}

// HooksToggles is the full hook inventory.
type HooksToggles struct {
	GlobalHooks    []HookInfo       `json:"globalHooks"`
	WorkspaceHooks []WorkspaceHooks `json:"workspaceHooks"`
	IsWindows      bool             `json:"isWindows"`
}

// ToggleRequest selects a hook and its desired state.
type ToggleRequest struct {
	HookName      HookType
	IsGlobal      bool
	Enabled       bool
	WorkspaceName string
}

// Refresh lists every hook file present, enabled or not. Every workspace
// appears even when it has no hooks yet.
func (e *Engine) Refresh(ctx context.Context) (*HooksToggles, error) {
	roots, err := e.discovery.WorkspaceRoots(ctx)
	if err != nil {
		return nil, err
	}

	out := &HooksToggles{
		GlobalHooks:    e.inventory(e.discovery.GlobalDir()),
		WorkspaceHooks: make([]WorkspaceHooks, 0, len(roots)),
		IsWindows:      e.strategy.IsWindows(),
	}
	for _, root := range roots {
		dir := config.WorkspaceHooksDir(root)
		out.WorkspaceHooks = append(out.WorkspaceHooks, WorkspaceHooks{
			WorkspaceName: workspace.Name(root),
			Hooks:         e.inventory(dir),
		})
	}
	return out, nil
}

func (e *Engine) inventory(dir string) []HookInfo {
	infos := []HookInfo{}
	for _, t := range allHookTypes {
		path, ok := e.discovery.ResolveExistingHookPath(dir, t)
		if !ok {
			continue
		}
		infos = append(infos, HookInfo{
			Name:         t,
			Enabled:      e.strategy.IsUsable(path),
			AbsolutePath: path,
		})
	}
	return infos
}

// Toggle enables or disables a hook and returns the refreshed inventory.
// On the interpreter platform the file is left as is.
func (e *Engine) Toggle(ctx context.Context, req ToggleRequest) (*HooksToggles, error) {
	if !req.HookName.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHookType, string(req.HookName))
	}

	dir, err := e.discovery.ResolveHooksDirectory(ctx, req.IsGlobal, req.WorkspaceName)
	if err != nil {
		return nil, err
	}
	path, ok := e.discovery.ResolveExistingHookPath(dir, req.HookName)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not exist in %s", ErrHookNotFound, req.HookName, dir)
	}

	if err := e.setEnabled(ctx, path, req.Enabled); err != nil {
		return nil, err
	}

	e.cache.InvalidateAll()
	return e.Refresh(ctx)
}

func (e *Engine) setEnabled(ctx context.Context, path string, enabled bool) error {
	lock := flock.New(e.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", e.lockPath, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", e.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("hooks: unlock %s: %v", e.lockPath, err)
		}
	}()

	changed, err := e.strategy.SetEnabled(path, enabled)
	if err != nil {
		return err
	}
	if !changed {
		log.Debug("hooks: %s strategy cannot toggle %s; left unchanged", e.strategy.Name(), path)
	}
	return nil
}
