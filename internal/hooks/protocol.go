// ABOUTME: Wire protocol between the engine and a hook process
// ABOUTME: Request is envelope + one per-type payload on stdin; Response is JSON on stdout

package hooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/mauromedda/pi-hooks-go/internal/log"
)

const (
	// MaxContextModificationChars caps the context a single hook may inject.
	MaxContextModificationChars = 50_000

	truncationMarker = "\n\n[... context truncated due to size limit]"

	errorSeparator   = "\n"
	contextSeparator = "\n\n"
)

// Input is what the caller supplies for one run: the task id and the
// payload matching the runner's hook type. Payloads for other hook types
// must be nil.
type Input struct {
	TaskID string `json:"taskId"`

	PreToolUse       *PreToolUseData       `json:"preToolUse,omitempty"`
	PostToolUse      *PostToolUseData      `json:"postToolUse,omitempty"`
	TaskStart        *TaskStartData        `json:"taskStart,omitempty"`
	TaskResume       *TaskResumeData       `json:"taskResume,omitempty"`
	TaskCancel       *TaskCancelData       `json:"taskCancel,omitempty"`
	TaskComplete     *TaskCompleteData     `json:"taskComplete,omitempty"`
	UserPromptSubmit *UserPromptSubmitData `json:"userPromptSubmit,omitempty"`
	PreCompact       *PreCompactData       `json:"preCompact,omitempty"`
}

// PreToolUseData describes a tool call about to run.
type PreToolUseData struct {
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters"`
}

// PostToolUseData describes a finished tool call.
type PostToolUseData struct {
	ToolName        string         `json:"toolName"`
	Parameters      map[string]any `json:"parameters"`
	Result          string         `json:"result"`
	Success         bool           `json:"success"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
}

// TaskMetadata identifies a task. Fields unused by a hook type are omitted.
type TaskMetadata struct {
	TaskID           string `json:"taskId"`
	ULID             string `json:"ulid"`
	InitialTask      string `json:"initialTask,omitempty"`
	Result           string `json:"result,omitempty"`
	Command          string `json:"command,omitempty"`
	CompletionStatus string `json:"completionStatus,omitempty"`
}

// TaskStartData is sent when a new task begins.
type TaskStartData struct {
	TaskMetadata TaskMetadata `json:"taskMetadata"`
}

// PreviousState snapshots a task being resumed. Every field is a string
// on the wire; use NewPreviousState to build one from native values.
type PreviousState struct {
	LastMessageTs              string `json:"lastMessageTs"`
	MessageCount               string `json:"messageCount"`
	ConversationHistoryDeleted string `json:"conversationHistoryDeleted"`
}

// NewPreviousState formats native values into the string-typed snapshot.
func NewPreviousState(lastMessageTs int64, messageCount int, historyDeleted bool) PreviousState {
	return PreviousState{
		LastMessageTs:              strconv.FormatInt(lastMessageTs, 10),
		MessageCount:               strconv.Itoa(messageCount),
		ConversationHistoryDeleted: strconv.FormatBool(historyDeleted),
	}
}

// TaskResumeData is sent when an existing task resumes.
type TaskResumeData struct {
	TaskMetadata  TaskMetadata  `json:"taskMetadata"`
	PreviousState PreviousState `json:"previousState"`
}

// TaskCancelData is sent when a task is cancelled.
type TaskCancelData struct {
	TaskMetadata TaskMetadata `json:"taskMetadata"`
}

// TaskCompleteData is sent when a task completes.
type TaskCompleteData struct {
	TaskMetadata TaskMetadata `json:"taskMetadata"`
}

// UserPromptSubmitData carries a submitted prompt.
type UserPromptSubmitData struct {
	Prompt      string   `json:"prompt"`
	Attachments []string `json:"attachments"`
}

// PreCompactData is sent before the conversation context is compacted.
type PreCompactData struct {
	TaskID             string `json:"taskId"`
	ULID               string `json:"ulid"`
	ContextSize        int    `json:"contextSize"`
	CompactionStrategy string `json:"compactionStrategy,omitempty"`
}

// payloadTypes lists the hook types whose payload is set.
func (in Input) payloadTypes() []HookType {
	var set []HookType
	add := func(ok bool, t HookType) {
		if ok {
			set = append(set, t)
		}
	}
	add(in.PreToolUse != nil, PreToolUse)
	add(in.PostToolUse != nil, PostToolUse)
	add(in.TaskStart != nil, TaskStart)
	add(in.TaskResume != nil, TaskResume)
	add(in.TaskCancel != nil, TaskCancel)
	add(in.TaskComplete != nil, TaskComplete)
	add(in.UserPromptSubmit != nil, UserPromptSubmit)
	add(in.PreCompact != nil, PreCompact)
	return set
}

// validateFor rejects inputs carrying a payload for a different hook type.
// An input with no payload at all is accepted.
func (in Input) validateFor(t HookType) error {
	for _, got := range in.payloadTypes() {
		if got != t {
			return fmt.Errorf("%w: %s payload sent to %s hook", ErrPayloadMismatch, got.payloadKey(), t)
		}
	}
	return nil
}

// Request is the document written to a hook's stdin.
type Request struct {
	ClineVersion   string   `json:"clineVersion"`
	HookName       HookType `json:"hookName"`
	Timestamp      string   `json:"timestamp"`
	WorkspaceRoots []string `json:"workspaceRoots"`
	Input
}

// newRequest wraps in with the envelope fields.
func newRequest(t HookType, version string, now time.Time, roots []string, in Input) *Request {
	if roots == nil {
		roots = []string{}
	}
	return &Request{
		ClineVersion:   version,
		HookName:       t,
		Timestamp:      strconv.FormatInt(now.UnixMilli(), 10),
		WorkspaceRoots: roots,
		Input:          in,
	}
}

// Response is a hook's verdict, and also the combined verdict of several hooks.
type Response struct {
	Cancel              bool   `json:"cancel"`
	ContextModification string `json:"contextModification,omitempty"`
	ErrorMessage        string `json:"errorMessage,omitempty"`
}

// parseResponse decodes stdout. Anything that is not a Response document
// yields the allow verdict; a hook that exited 0 is never an error.
func parseResponse(t HookType, stdout []byte) Response {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return Response{}
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		log.Debug("hooks: %s output is not a response document, ignoring: %v", t, err)
		return Response{}
	}
	resp.ContextModification = truncateContext(resp.ContextModification)
	return resp
}

// truncateContext caps s at MaxContextModificationChars characters, cutting
// on a grapheme boundary, and appends the truncation marker.
func truncateContext(s string) string {
	if utf8.RuneCountInString(s) <= MaxContextModificationChars {
		return s
	}
	rest := s
	chars := 0
	state := -1
	for len(rest) > 0 {
		cluster, next, _, st := uniseg.FirstGraphemeClusterInString(rest, state)
		n := utf8.RuneCountInString(cluster)
		if chars+n > MaxContextModificationChars {
			break
		}
		chars += n
		rest, state = next, st
	}
	return s[:len(s)-len(rest)] + truncationMarker
}

// combine reduces per-hook responses: cancel is OR-ed, non-empty context
// and error strings are joined in the given order.
func combine(rs []Response) Response {
	var out Response
	var ctxs, errs []string
	for _, r := range rs {
		out.Cancel = out.Cancel || r.Cancel
		if r.ContextModification != "" {
			ctxs = append(ctxs, r.ContextModification)
		}
		if r.ErrorMessage != "" {
			errs = append(errs, r.ErrorMessage)
		}
	}
	out.ContextModification = strings.Join(ctxs, contextSeparator)
	out.ErrorMessage = strings.Join(errs, errorSeparator)
	return out
}
