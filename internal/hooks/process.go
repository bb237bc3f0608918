// ABOUTME: Runs one hook process: JSON request on stdin, JSON response from stdout
// ABOUTME: Nonzero exit, timeout, and oversize output fail; unparseable output allows

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/mauromedda/pi-hooks-go/internal/eventbus"
	"github.com/mauromedda/pi-hooks-go/internal/log"
)

const (
	// DefaultTimeout bounds a single hook process.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputBytes caps what a hook may write to stdout.
	DefaultMaxOutputBytes int64 = 1 << 20

	stderrTailBytes = 4 << 10
)

// ProcessRunner spawns hook processes.
type ProcessRunner struct {
	strategy  Strategy
	timeout   time.Duration
	maxOutput int64
	bus       *eventbus.Bus
	env       []string
}

// NewProcessRunner creates a runner. A zero timeout disables the per-hook
// deadline; a non-positive maxOutput selects DefaultMaxOutputBytes.
func NewProcessRunner(strategy Strategy, timeout time.Duration, maxOutput int64, bus *eventbus.Bus) *ProcessRunner {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	return &ProcessRunner{
		strategy:  strategy,
		timeout:   timeout,
		maxOutput: maxOutput,
		bus:       bus,
	}
}

// SetEnv adds variables to every hook's environment, on top of the
// engine's own environment.
func (p *ProcessRunner) SetEnv(vars map[string]string) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	p.env = env
}

// Run executes the hook at ref with req on stdin. A process that exits 0
// always yields a Response, even if its output is garbage.
func (p *ProcessRunner) Run(ctx context.Context, ref HookFileRef, req *Request) (Response, error) {
	lc, err := p.strategy.LaunchConfig(ctx, ref.Path)
	if err != nil {
		return Response{}, p.fail(ref, 0, -1, "", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal %s request: %w", ref.HookType, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)

	cmd := lc.Cmd(runCtx)
	cmd.Dir = ref.WorkDir
	cmd.Stdin = bytes.NewReader(payload)
	if len(p.env) > 0 {
		cmd.Env = append(os.Environ(), p.env...)
	}

	stdout := &cappedBuffer{limit: p.maxOutput, onOverflow: func() { cancelRun(ErrOutputTooLarge) }}
	stderr := &tailBuffer{max: stderrTailBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug("hooks: running %s hook %s (%s)", ref.HookType, ref.Path, ref.Source())
	p.bus.Publish(eventbus.Event{Kind: eventbus.HookStarted, HookType: string(ref.HookType), Path: ref.Path, Global: ref.Global})

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	// The hook exited 0 but a background child still held stdout when
	// WaitDelay expired. What the hook wrote before exiting is its answer.
	if errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		log.Debug("hooks: %s hook %s left a child holding stdout", ref.HookType, ref.Path)
		if lc.Detached {
			_ = killProcGroup(cmd)
		}
		runErr = nil
	}

	if err := p.exitFailure(ctx, runCtx, runErr); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return Response{}, p.fail(ref, elapsed, code, stderr.String(), err)
	}

	resp := parseResponse(ref.HookType, stdout.Bytes())
	log.Debug("hooks: %s hook %s finished in %v (cancel=%v)", ref.HookType, ref.Path, elapsed, resp.Cancel)
	p.bus.Publish(eventbus.Event{
		Kind:     eventbus.HookFinished,
		HookType: string(ref.HookType),
		Path:     ref.Path,
		Global:   ref.Global,
		Duration: elapsed,
		Cancel:   resp.Cancel,
	})
	return resp, nil
}

// exitFailure classifies how the process ended. It returns nil only for a
// clean exit 0 within the limits.
func (p *ProcessRunner) exitFailure(ctx, runCtx context.Context, runErr error) error {
	if cause := context.Cause(runCtx); errors.Is(cause, ErrOutputTooLarge) {
		return fmt.Errorf("%w (%d bytes)", ErrOutputTooLarge, p.maxOutput)
	}
	if runErr == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %v: %w", p.timeout, ctx.Err())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return runErr
}

func (p *ProcessRunner) fail(ref HookFileRef, elapsed time.Duration, code int, stderr string, err error) error {
	execErr := &HookExecutionError{
		HookType: ref.HookType,
		Path:     ref.Path,
		ExitCode: code,
		Stderr:   stderr,
		Err:      err,
	}
	log.Debug("hooks: %v", execErr)
	p.bus.Publish(eventbus.Event{
		Kind:     eventbus.HookFailed,
		HookType: string(ref.HookType),
		Path:     ref.Path,
		Global:   ref.Global,
		Duration: elapsed,
		ExitCode: code,
		Err:      execErr,
	})
	return execErr
}

// cappedBuffer keeps at most limit bytes and reports the first overflow.
// Writes never fail so the child does not see EPIPE before it is killed.
type cappedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int64
	overflowed bool
	onOverflow func()
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overflowed {
		return len(p), nil
	}
	room := c.limit - int64(c.buf.Len())
	if int64(len(p)) > room {
		c.buf.Write(p[:max(room, 0)])
		c.overflowed = true
		if c.onOverflow != nil {
			c.onOverflow()
		}
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Bytes()
}

// tailBuffer keeps the last max bytes written.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
