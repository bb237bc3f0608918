// ABOUTME: Discovers and memoises the PowerShell executable used for .ps1 hooks
// ABOUTME: Probes candidates in order under a timeout; singleflight shares one probe run

package powershell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mauromedda/pi-hooks-go/internal/log"
)

const (
	// Pwsh7Path is the default PowerShell 7 install location.
	Pwsh7Path = `C:\Program Files\PowerShell\7\pwsh.exe`

	// LegacyPath is Windows PowerShell 5.1, present on every supported
	// Windows install. Used when nothing else probes successfully.
	LegacyPath = `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`

	// DefaultProbeTimeout bounds a single candidate probe.
	DefaultProbeTimeout = 1200 * time.Millisecond
)

// ProbeFunc reports whether candidate is a working PowerShell executable.
type ProbeFunc func(ctx context.Context, candidate string, timeout time.Duration) bool

// Resolver finds the PowerShell executable once and caches the answer.
// The zero value is not usable; construct with New.
type Resolver struct {
	group singleflight.Group

	mu       sync.Mutex
	resolved string
	done     bool
	gen      uint64
	probe    ProbeFunc
	timeout  time.Duration
	getenv   func(string) string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProbe substitutes the probe function.
func WithProbe(p ProbeFunc) Option {
	return func(r *Resolver) { r.probe = p }
}

// WithProbeTimeout overrides the per-candidate probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithGetenv overrides environment lookup for candidate construction.
func WithGetenv(fn func(string) string) Option {
	return func(r *Resolver) { r.getenv = fn }
}

// New creates a Resolver that probes with Probe by default.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		probe:   Probe,
		timeout: DefaultProbeTimeout,
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the PowerShell executable path. Concurrent callers share
// a single probing sequence; later callers get the cached result.
// It never fails on probe errors: when no candidate works the legacy path
// is returned. Only ctx cancellation produces an error.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.done {
		path := r.resolved
		r.mu.Unlock()
		return path, nil
	}
	probe, timeout, gen := r.probe, r.timeout, r.gen
	r.mu.Unlock()

	// The shared probe run must not inherit one caller's cancellation.
	probeCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan("resolve", func() (any, error) {
		path := r.resolve(probeCtx, probe, timeout)
		r.mu.Lock()
		if r.gen == gen {
			r.resolved = path
			r.done = true
		}
		r.mu.Unlock()
		return path, nil
	})

	select {
	case res := <-ch:
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Resolver) resolve(ctx context.Context, probe ProbeFunc, timeout time.Duration) string {
	candidates := Candidates(r.getenv)
	for _, c := range candidates {
		if probe(ctx, c, timeout) {
			log.Debug("powershell: using executable %s", c)
			return c
		}
	}
	log.Warn("powershell: no candidate resolved (%s), falling back to %s",
		strings.Join(candidates, ", "), LegacyPath)
	return LegacyPath
}

// Reset drops the cached result so the next Resolve probes again.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = ""
	r.done = false
	r.gen++
	r.group.Forget("resolve")
}

// SetProbe replaces the probe function; nil restores the default.
func (r *Resolver) SetProbe(p ProbeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		p = Probe
	}
	r.probe = p
}

// Candidates lists executables to try, most preferred first, without
// duplicates: versioned installs under Program Files (64-bit root first),
// the default pwsh 7 path, the legacy path, then bare command names.
func Candidates(getenv func(string) string) []string {
	programFiles := firstNonEmpty(getenv("ProgramW6432"), getenv("ProgramFiles"), `C:\Program Files`)

	all := []string{
		programFiles + `\PowerShell\7\pwsh.exe`,
		programFiles + `\PowerShell\6\pwsh.exe`,
		Pwsh7Path,
		LegacyPath,
		"pwsh.exe",
		"pwsh",
		"powershell.exe",
		"powershell",
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Probe runs candidate asking for its version. It reports true only if the
// process exits 0 within timeout; a hung process is killed.
func Probe(ctx context.Context, candidate string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, candidate,
		"-NoProfile", "-NonInteractive", "-Command", "$PSVersionTable.PSVersion")
	hideWindow(cmd)
	cmd.WaitDelay = 100 * time.Millisecond

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			log.Debug("powershell: probe %s: %v", candidate, err)
		}
		return false
	}
	return ctx.Err() == nil
}
