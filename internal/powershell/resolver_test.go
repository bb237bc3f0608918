// ABOUTME: Tests for PowerShell candidate ordering, memoisation, and probe timeouts
// ABOUTME: Substitutes the probe function so no real PowerShell is needed

package powershell

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestCandidates_OrderAndUniqueness(t *testing.T) {
	t.Parallel()

	got := Candidates(envOf(map[string]string{"ProgramFiles": `C:\Program Files`}))

	seen := map[string]bool{}
	for _, c := range got {
		if seen[c] {
			t.Fatalf("duplicate candidate %q in %v", c, got)
		}
		seen[c] = true
	}
	if got[0] != `C:\Program Files\PowerShell\7\pwsh.exe` {
		t.Errorf("first candidate = %q", got[0])
	}
	idx := func(s string) int {
		for i, c := range got {
			if c == s {
				return i
			}
		}
		return -1
	}
	if idx(LegacyPath) < 0 || idx(LegacyPath) > idx("pwsh.exe") {
		t.Errorf("legacy path must precede bare command names: %v", got)
	}
	tail := got[len(got)-2:]
	if tail[0] != "powershell.exe" || tail[1] != "powershell" {
		t.Errorf("last candidates = %v", tail)
	}
}

func TestCandidates_Prefers64BitRoot(t *testing.T) {
	t.Parallel()

	got := Candidates(envOf(map[string]string{
		"ProgramW6432": `D:\PF64`,
		"ProgramFiles": `D:\PF86`,
	}))
	if got[0] != `D:\PF64\PowerShell\7\pwsh.exe` {
		t.Errorf("first candidate = %q, want 64-bit root", got[0])
	}
	for _, c := range got {
		if c == `D:\PF86\PowerShell\7\pwsh.exe` {
			t.Errorf("32-bit root should not be used when ProgramW6432 is set")
		}
	}
}

func TestCandidates_DefaultRoot(t *testing.T) {
	t.Parallel()

	got := Candidates(envOf(nil))
	if got[0] != Pwsh7Path {
		t.Errorf("first candidate = %q, want %q", got[0], Pwsh7Path)
	}
}

func TestResolve_PrefersFirstWorkingCandidate(t *testing.T) {
	t.Parallel()

	env := envOf(map[string]string{"ProgramFiles": `C:\Program Files`})
	preferred := Candidates(env)[0]

	var calls atomic.Int32
	r := New(WithGetenv(env), WithProbe(func(_ context.Context, c string, _ time.Duration) bool {
		calls.Add(1)
		return c == preferred
	}))

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != preferred {
		t.Errorf("Resolve = %q, want %q", got, preferred)
	}
	if calls.Load() != 1 {
		t.Errorf("probe calls = %d, want 1", calls.Load())
	}
}

func TestResolve_FallsBackToLegacy(t *testing.T) {
	t.Parallel()

	r := New(WithGetenv(envOf(nil)), WithProbe(func(context.Context, string, time.Duration) bool {
		return false
	}))

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != LegacyPath {
		t.Errorf("Resolve = %q, want %q", got, LegacyPath)
	}
}

func TestResolve_CachesResult(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := New(WithGetenv(envOf(nil)), WithProbe(func(context.Context, string, time.Duration) bool {
		calls.Add(1)
		return true
	}))

	first, _ := r.Resolve(context.Background())
	second, _ := r.Resolve(context.Background())
	if first != second {
		t.Errorf("results differ: %q vs %q", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("probe calls = %d, want 1", calls.Load())
	}
}

func TestResolve_SharesProbeAcrossConcurrentCallers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	r := New(WithGetenv(envOf(nil)), WithProbe(func(context.Context, string, time.Duration) bool {
		calls.Add(1)
		<-release
		return true
	}))

	const n = 8
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("probe calls = %d, want 1", calls.Load())
	}
	for i, got := range results {
		if got != Pwsh7Path {
			t.Errorf("caller %d got %q, want %q", i, got, Pwsh7Path)
		}
	}
}

func TestResolve_ResetProbesAgain(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	probe := func(context.Context, string, time.Duration) bool {
		calls.Add(1)
		return true
	}
	r := New(WithGetenv(envOf(nil)), WithProbe(probe))

	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Reset()
	r.SetProbe(probe)
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("probe calls = %d, want 2", calls.Load())
	}
}

func TestResolve_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := New(WithGetenv(envOf(nil)), WithProbe(func(ctx context.Context, _ string, _ time.Duration) bool {
		<-release
		return ctx.Err() == nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected cancellation error")
	}
	close(release)

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != Pwsh7Path {
		t.Errorf("Resolve = %q, want %q", got, Pwsh7Path)
	}
}

func TestProbe_MissingExecutable(t *testing.T) {
	t.Parallel()

	if Probe(context.Background(), "pi-hooks-no-such-powershell", 10*time.Millisecond) {
		t.Error("probe of missing executable should fail")
	}
}
