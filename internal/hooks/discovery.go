// ABOUTME: Locates hook directories (global + per workspace) and the hook file in each
// ABOUTME: Missing directories and files are the normal case and never produce errors

package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

// Location is one directory that may hold hook files.
type Location struct {
	Dir           string
	Global        bool
	WorkspaceName string
	WorkDir       string
}

// Discovery resolves hook directories and hook files.
type Discovery struct {
	strategy   Strategy
	globalDir  string
	workspaces workspace.Provider
}

// NewDiscovery creates a Discovery. An empty globalDir selects the default
// per-user directory; a nil provider uses the working directory.
func NewDiscovery(strategy Strategy, globalDir string, workspaces workspace.Provider) *Discovery {
	if globalDir == "" {
		globalDir = config.DefaultGlobalHooksDir()
	}
	if workspaces == nil {
		workspaces = workspace.Cwd{}
	}
	return &Discovery{strategy: strategy, globalDir: globalDir, workspaces: workspaces}
}

// GlobalDir returns the global hooks directory.
func (d *Discovery) GlobalDir() string { return d.globalDir }

// WorkspaceRoots returns the current workspace roots.
func (d *Discovery) WorkspaceRoots(ctx context.Context) ([]string, error) {
	roots, err := d.workspaces.WorkspacePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate workspace roots: %w", err)
	}
	return roots, nil
}

// ResolveHooksDirectory returns the global hooks directory, or the hooks
// directory of a workspace. With an empty workspaceName the primary
// workspace is used; otherwise the root whose base name matches.
func (d *Discovery) ResolveHooksDirectory(ctx context.Context, isGlobal bool, workspaceName string) (string, error) {
	if isGlobal {
		return d.globalDir, nil
	}

	roots, err := d.WorkspaceRoots(ctx)
	if err != nil {
		return "", err
	}

	if workspaceName != "" {
		root, ok := workspace.FindByName(roots, workspaceName)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrWorkspaceNotFound, workspaceName)
		}
		return config.WorkspaceHooksDir(root), nil
	}

	if len(roots) > 0 {
		return config.WorkspaceHooksDir(roots[0]), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return config.WorkspaceHooksDir(cwd), nil
}

// ResolveExistingHookPath returns the hook file for t in dir if it exists
// as a regular file. Only the strategy's file name is considered.
func (d *Discovery) ResolveExistingHookPath(dir string, t HookType) (string, bool) {
	path := filepath.Join(dir, d.strategy.HookFileName(t))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// FindHookInHooksDir returns the hook file for t in dir if it exists and
// is enabled.
func (d *Discovery) FindHookInHooksDir(dir string, t HookType) (string, bool) {
	path, ok := d.ResolveExistingHookPath(dir, t)
	if !ok || !d.strategy.IsUsable(path) {
		return "", false
	}
	return path, true
}

// Locations lists the global location followed by one per workspace root.
func (d *Discovery) Locations(ctx context.Context) ([]Location, error) {
	roots, err := d.WorkspaceRoots(ctx)
	if err != nil {
		return nil, err
	}

	primary := ""
	if len(roots) > 0 {
		primary = roots[0]
	}

	locs := make([]Location, 0, len(roots)+1)
	locs = append(locs, Location{Dir: d.globalDir, Global: true, WorkDir: primary})
	for _, root := range roots {
		locs = append(locs, Location{
			Dir:           config.WorkspaceHooksDir(root),
			WorkspaceName: workspace.Name(root),
			WorkDir:       root,
		})
	}
	return locs, nil
}

// Discover returns every enabled hook file for t: global first, then one
// per workspace in root order.
func (d *Discovery) Discover(ctx context.Context, t HookType) ([]HookFileRef, error) {
	locs, err := d.Locations(ctx)
	if err != nil {
		return nil, err
	}
	return d.discoverIn(locs, t), nil
}

func (d *Discovery) discoverIn(locs []Location, t HookType) []HookFileRef {
	var refs []HookFileRef
	for _, loc := range locs {
		path, ok := d.FindHookInHooksDir(loc.Dir, t)
		if !ok {
			continue
		}
		refs = append(refs, HookFileRef{
			HookType:      t,
			Path:          path,
			Global:        loc.Global,
			WorkspaceName: loc.WorkspaceName,
			WorkDir:       loc.WorkDir,
		})
	}
	return refs
}
