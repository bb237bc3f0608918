// ABOUTME: Workspace-root enumeration consumed by hook discovery
// ABOUTME: Static and cwd-backed providers; NFC-normalised lookup by base name

package workspace

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Provider enumerates the current workspace roots. The first root is the
// primary one.
type Provider interface {
	WorkspacePaths(ctx context.Context) ([]string, error)
}

// Static is a fixed list of workspace roots.
type Static []string

// WorkspacePaths returns a copy of the roots.
func (s Static) WorkspacePaths(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// Cwd reports the process working directory as the single workspace root.
type Cwd struct{}

// WorkspacePaths returns the absolute working directory.
func (Cwd) WorkspacePaths(context.Context) ([]string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return []string{dir}, nil
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context) ([]string, error)

// WorkspacePaths calls f.
func (f Func) WorkspacePaths(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// Name returns the display name of a workspace root: its base name.
func Name(root string) string {
	return filepath.Base(filepath.Clean(root))
}

// FindByName returns the root whose base name equals name. Names are
// compared after NFC normalisation so decomposed paths (macOS) still match.
func FindByName(roots []string, name string) (string, bool) {
	want := norm.NFC.String(name)
	for _, r := range roots {
		if norm.NFC.String(Name(r)) == want {
			return r, true
		}
	}
	return "", false
}
