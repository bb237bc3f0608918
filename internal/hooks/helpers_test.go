// ABOUTME: Shared fixtures for hooks tests: temp hook trees and scripted hooks
// ABOUTME: Hook bodies are real /bin/sh scripts so the full process path runs

package hooks

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mauromedda/pi-hooks-go/internal/config"
	"github.com/mauromedda/pi-hooks-go/internal/workspace"
)

// fixture is a global hooks dir plus workspace roots under one temp dir.
type fixture struct {
	globalDir string
	roots     []string
	lockPath  string
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script hooks require a unix shell")
	}
}

func newFixture(t *testing.T, workspaceNames ...string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		globalDir: filepath.Join(base, "global"),
		lockPath:  filepath.Join(base, "toggle.lock"),
	}
	for _, name := range workspaceNames {
		root := filepath.Join(base, name)
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatal(err)
		}
		f.roots = append(f.roots, root)
	}
	return f
}

func (f *fixture) workspaceDir(i int) string {
	return config.WorkspaceHooksDir(f.roots[i])
}

func (f *fixture) engine(opts ...Option) *Engine {
	base := []Option{
		WithGlobalDir(f.globalDir),
		WithWorkspaces(workspace.Static(f.roots)),
		WithStrategy(NativeStrategy{}),
		WithLockPath(f.lockPath),
		WithTimeout(10 * time.Second),
		WithVersion("test"),
	}
	return New(append(base, opts...)...)
}

// writeHook writes an executable sh script named after t into dir.
func writeHook(t *testing.T, dir string, ht HookType, body string) string {
	t.Helper()
	return writeFile(t, dir, string(ht), "#!/bin/sh\n"+body+"\n", 0o755)
}

func writeFile(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
	// WriteFile does not change the mode of an existing file.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
	return path
}
