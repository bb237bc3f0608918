// ABOUTME: "run" executes every hook of one type once; "serve" does so per JSON line
// ABOUTME: Both print the combined hook response as JSON on stdout

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mauromedda/pi-hooks-go/internal/hooks"
	pilog "github.com/mauromedda/pi-hooks-go/internal/log"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		inputPath string
		taskID    string
	)

	cmd := &cobra.Command{
		Use:   "run <HookType>",
		Short: "Run all hooks of one type and print the combined response",
		Long: `Run every enabled hook of the given type, global and per workspace,
concurrently. The hook input (taskId plus the payload for this hook type) is
read as JSON from stdin or --input. An empty input sends no payload.

Examples:
  echo '{"preToolUse":{"toolName":"read_file","parameters":{}}}' | pi-hooks run PreToolUse
  pi-hooks run TaskStart --input start.json --task-id 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseHookArg(args[0])
			if err != nil {
				return err
			}
			in, err := a.readInput(inputPath)
			if err != nil {
				return err
			}
			if taskID != "" {
				in.TaskID = taskID
			}
			if in.TaskID == "" {
				in.TaskID = uuid.NewString()
			}

			e, _, err := a.engine()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			resp, err := e.Run(ctx, t, in)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, resp)
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "read hook input JSON from file instead of stdin")
	cmd.Flags().StringVar(&taskID, "task-id", "", "task id to send (default: input's taskId or a new UUID)")
	return cmd
}

func (a *app) readInput(path string) (hooks.Input, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(a.stdin)
	}
	if err != nil {
		return hooks.Input{}, fmt.Errorf("read input: %w", err)
	}

	var in hooks.Input
	if len(bytes.TrimSpace(data)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return hooks.Input{}, fmt.Errorf("parse input: %w", err)
	}
	return in, nil
}

// serveRequest is one line of "serve" input.
type serveRequest struct {
	HookName string      `json:"hookName"`
	Input    hooks.Input `json:"input"`
}

// serveResponse is one line of "serve" output.
type serveResponse struct {
	HookName string          `json:"hookName"`
	Result   *hooks.Response `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer newline-delimited hook requests from stdin",
		Long: `Read one JSON request per line from stdin, run the named hooks, and write
one JSON response per line to stdout. Requests are answered in order.

Request:  {"hookName":"PreToolUse","input":{"taskId":"1","preToolUse":{...}}}
Response: {"hookName":"PreToolUse","result":{"cancel":false}}
          {"hookName":"PreToolUse","error":"PreToolUse hook exited with code 1"}

With watch enabled in config, hook directories are polled and changes are
picked up without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, s, err := a.engine()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if s.Watch {
				stopWatch, err := e.Watch(ctx, s.WatchInterval)
				if err != nil {
					return err
				}
				defer stopWatch()
			}
			return serve(ctx, e, a.stdin, a.stdout)
		},
	}
}

func serve(ctx context.Context, e *hooks.Engine, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	enc := json.NewEncoder(w)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		out := serveOne(ctx, e, line)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read requests: %w", err)
	}
	return nil
}

func serveOne(ctx context.Context, e *hooks.Engine, line []byte) serveResponse {
	var req serveRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return serveResponse{Error: fmt.Sprintf("parse request: %v", err)}
	}
	out := serveResponse{HookName: req.HookName}

	t, err := parseHookArg(req.HookName)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if req.Input.TaskID == "" {
		req.Input.TaskID = uuid.NewString()
	}

	resp, err := e.Run(ctx, t, req.Input)
	if err != nil {
		pilog.Debug("serve: %s: %v", t, err)
		out.Error = err.Error()
		return out
	}
	out.Result = &resp
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
