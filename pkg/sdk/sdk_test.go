// ABOUTME: Tests for the SDK public API against real shell-script hooks
// ABOUTME: Covers client creation, typed helpers, events, toggling, and lifecycle

package sdk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type testTree struct {
	global string
	root   string
}

func newTree(t *testing.T) *testTree {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script hooks require a unix shell")
	}
	base := t.TempDir()
	tr := &testTree{global: filepath.Join(base, "global"), root: filepath.Join(base, "app")}
	if err := os.MkdirAll(tr.root, 0o755); err != nil {
		t.Fatal(err)
	}
	return tr
}

func (tr *testTree) hook(t *testing.T, global bool, ht HookType, body string) {
	t.Helper()
	dir := tr.global
	if !global {
		dir = filepath.Join(tr.root, ".clinerules", "hooks")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(ht)), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func (tr *testTree) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithGlobalDir(tr.global), WithWorkspaceRoots(tr.root), WithVersion("sdk-test")}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_NoHooksAllows(t *testing.T) {
	tr := newTree(t)
	c := tr.client(t)

	res, err := c.PreToolUse(context.Background(), "t1", "read_file", map[string]any{"path": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed() || res.Context() != "" {
		t.Errorf("result = %+v, want allow", res)
	}
}

func TestClient_PreToolUseBlocks(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, false, PreToolUse, `echo '{"cancel":true,"contextModification":"protected file","errorMessage":"denied"}'`)
	c := tr.client(t)

	res, err := c.PreToolUse(context.Background(), "t1", "write_to_file", map[string]any{"path": ".env"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed() {
		t.Error("expected cancel")
	}
	if res.Context() != "protected file" || res.ErrorMessage != "denied" {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_PostToolUseAndPrompt(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, PostToolUse, `echo '{"contextModification":"post"}'`)
	tr.hook(t, true, UserPromptSubmit, `echo '{"contextModification":"prompt"}'`)
	c := tr.client(t)
	ctx := context.Background()

	res, err := c.PostToolUse(ctx, "t1", PostToolUseData{ToolName: "ls", Result: "a b", Success: true, ExecutionTimeMs: 12})
	if err != nil || res.Context() != "post" {
		t.Errorf("PostToolUse = %+v, %v", res, err)
	}
	res, err = c.UserPromptSubmit(ctx, "t1", "hello", nil)
	if err != nil || res.Context() != "prompt" {
		t.Errorf("UserPromptSubmit = %+v, %v", res, err)
	}
}

func TestClient_HookFailure(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, TaskComplete, "exit 4")
	c := tr.client(t)

	_, err := c.Run(context.Background(), TaskComplete, Input{TaskID: "t"})
	var execErr *HookExecutionError
	if !errors.As(err, &execErr) || execErr.ExitCode != 4 {
		t.Errorf("err = %v, want exit code 4", err)
	}
}

func TestClient_OnEvent(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, TaskStart, "exit 0")
	tr.hook(t, false, TaskStart, "exit 0")
	c := tr.client(t)

	var started, finished atomic.Int32
	unsubscribe := c.OnEvent(func(ev Event) {
		switch ev.Kind.String() {
		case "started":
			started.Add(1)
		case "finished":
			finished.Add(1)
		}
	})

	if _, err := c.Run(context.Background(), TaskStart, Input{TaskID: "t"}); err != nil {
		t.Fatal(err)
	}
	if started.Load() != 2 || finished.Load() != 2 {
		t.Errorf("started=%d finished=%d, want 2 each", started.Load(), finished.Load())
	}

	unsubscribe()
	if _, err := c.Run(context.Background(), TaskStart, Input{TaskID: "t"}); err != nil {
		t.Fatal(err)
	}
	if started.Load() != 2 {
		t.Error("handler still called after unsubscribe")
	}
}

func TestClient_ToggleAndHooks(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, PreCompact, `echo '{"cancel":true}'`)
	c := tr.client(t)
	ctx := context.Background()

	inv, err := c.Toggle(ctx, ToggleRequest{HookName: PreCompact, IsGlobal: true, Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.GlobalHooks) != 1 || inv.GlobalHooks[0].Enabled {
		t.Errorf("global hooks = %+v", inv.GlobalHooks)
	}

	res, err := c.Run(ctx, PreCompact, Input{TaskID: "t"})
	if err != nil || !res.Allowed() {
		t.Errorf("disabled hook still decides: %+v, %v", res, err)
	}

	listed, err := c.Hooks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed.WorkspaceHooks) != 1 || listed.WorkspaceHooks[0].WorkspaceName != "app" {
		t.Errorf("workspace hooks = %+v", listed.WorkspaceHooks)
	}
}

func TestClient_CloseCancelsInFlight(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, TaskResume, "sleep 30")
	c := tr.client(t, WithTimeout(0))

	go func() {
		time.Sleep(200 * time.Millisecond)
		c.Close()
	}()

	start := time.Now()
	_, err := c.Run(context.Background(), TaskResume, Input{TaskID: "t"})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Close did not kill the running hook")
	}

	if _, err := c.Run(context.Background(), TaskResume, Input{TaskID: "t"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Run after Close err = %v, want ErrClosed", err)
	}
}

func TestClient_ClosedRejectsCalls(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, true, PreCompact, "exit 0")
	c := tr.client(t)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Hooks(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Hooks after Close err = %v, want ErrClosed", err)
	}
	req := ToggleRequest{HookName: PreCompact, IsGlobal: true, Enabled: false}
	if _, err := c.Toggle(ctx, req); !errors.Is(err, ErrClosed) {
		t.Errorf("Toggle after Close err = %v, want ErrClosed", err)
	}
	if _, err := c.PreToolUse(ctx, "t", "read_file", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("PreToolUse after Close err = %v, want ErrClosed", err)
	}
}

func TestClient_CallerContextCancelled(t *testing.T) {
	tr := newTree(t)
	c := tr.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Run(ctx, TaskStart, Input{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClient_WorkspaceFunc(t *testing.T) {
	tr := newTree(t)
	tr.hook(t, false, TaskCancel, `echo '{"contextModification":"ws"}'`)

	var calls atomic.Int32
	c := tr.client(t, WithWorkspaceFunc(func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{tr.root}, nil
	}))

	res, err := c.Run(context.Background(), TaskCancel, Input{TaskID: "t"})
	if err != nil || res.Context() != "ws" {
		t.Errorf("Run = %+v, %v", res, err)
	}
	if calls.Load() == 0 {
		t.Error("workspace func never consulted")
	}
}

func TestClient_WithSettings(t *testing.T) {
	tr := newTree(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PI_HOOKS_GLOBAL_DIR", "")

	cfgDir := filepath.Join(tr.root, ".clinerules")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := "global_hooks_dir: " + tr.global + "\nenv:\n  HOOK_GREETING: hi\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "hooks.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	tr.hook(t, true, TaskStart, `printf '{"contextModification":"%s"}' "$HOOK_GREETING"`)

	c, err := New(WithSettings(tr.root), WithWorkspaceRoots(tr.root))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	res, err := c.Run(context.Background(), TaskStart, Input{TaskID: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Context(), "hi") {
		t.Errorf("context = %q, want env from settings", res.Context())
	}
}

func TestClient_SettingsWorkspacesAreAbsolute(t *testing.T) {
	tr := newTree(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PI_HOOKS_GLOBAL_DIR", "")
	tr.hook(t, false, TaskCancel, `echo '{"contextModification":"ws"}'`)

	cfg := "global_hooks_dir: " + tr.global + "\nworkspaces:\n  - " + filepath.Base(tr.root) + "\n"
	if err := os.WriteFile(filepath.Join(tr.root, ".clinerules", "hooks.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Chdir(filepath.Dir(tr.root))
	c, err := New(WithSettings(tr.root))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// A relative root resolved lazily would now point somewhere else.
	t.Chdir(t.TempDir())
	res, err := c.Run(context.Background(), TaskCancel, Input{TaskID: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Context() != "ws" {
		t.Errorf("context = %q, want the workspace hook's output", res.Context())
	}
}
