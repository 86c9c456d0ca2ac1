package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
	"github.com/ripinlibinus/rag-property-assistant/internal/llm"
	"github.com/ripinlibinus/rag-property-assistant/internal/memory"
	"github.com/ripinlibinus/rag-property-assistant/internal/observability"
)

// DefaultMaxToolHops is the runaway-loop ceiling (spec §4.7 "design default 6").
const DefaultMaxToolHops = 6

const unableToCompleteMessage = "I wasn't able to finish that request within the allotted tool calls. Could you narrow it down?"

// EventKind enumerates the stream event kinds named in spec §4.7.
type EventKind string

const (
	EventUserInput      EventKind = "user_input"
	EventReasoningToken EventKind = "reasoning_token"
	EventToolCall       EventKind = "tool_call"
	EventToolResult     EventKind = "tool_result"
	EventResponseToken  EventKind = "response_token"
	EventDone           EventKind = "done"
	EventError          EventKind = "error"
)

// Event is one item on the chat_stream contract.
type Event struct {
	Kind    EventKind
	Content string // reasoning_token / response_token delta, or user_input echo
	ToolID  string
	Name    string // tool_call's name
	Args    string // tool_call's raw JSON args
	Err     error
}

// EventSink receives stream events in order. Implementations must not block
// indefinitely — Engine makes no attempt to buffer beyond one event.
type EventSink interface {
	Emit(Event)
}

type sinkFunc func(Event)

func (f sinkFunc) Emit(e Event) { f(e) }

// Engine is C7's contract: chat(message, thread_id, user_id) -> final_text
// and chat_stream(...) -> stream of events, grounded on the teacher's
// engine.go runLoop/runStreamLoop/dispatchTools shape (PLAN -> EXECUTE loop,
// bounded tool-hop ceiling, assistant/tool message pairing) but narrowed to
// this domain's four-tool registry and without the teacher's ReMem,
// evolving-memory, dual-compaction, or delegation concerns.
type Engine struct {
	Provider llm.Provider
	Tools    *Registry
	Memory   *memory.Manager
	System   string
	Model    string

	MaxToolHops int
}

func New(provider llm.Provider, tools *Registry, mem *memory.Manager, system, model string) *Engine {
	return &Engine{
		Provider:    provider,
		Tools:       tools,
		Memory:      mem,
		System:      system,
		Model:       model,
		MaxToolHops: DefaultMaxToolHops,
	}
}

func (e *Engine) maxHops() int {
	if e.MaxToolHops <= 0 {
		return DefaultMaxToolHops
	}
	return e.MaxToolHops
}

// Chat runs one turn to completion and returns only the final assistant text.
func (e *Engine) Chat(ctx context.Context, message, threadID, userID string) (string, error) {
	var final string
	err := e.run(ctx, message, threadID, userID, sinkFunc(func(ev Event) {
		if ev.Kind == EventDone {
			final = ev.Content
		}
	}))
	return final, err
}

// ChatStream runs one turn, emitting every event on sink as it happens. The
// stream terminates cleanly when ctx is cancelled: outstanding tool calls
// are abandoned and their results discarded (spec §4.7 cancellation).
func (e *Engine) ChatStream(ctx context.Context, message, threadID, userID string, sink EventSink) error {
	return e.run(ctx, message, threadID, userID, sink)
}

func (e *Engine) run(ctx context.Context, message, threadID, userID string, sink EventSink) error {
	sink.Emit(Event{Kind: EventUserInput, Content: message})

	history, err := e.loadHistory(ctx, threadID, userID)
	if err != nil {
		sink.Emit(Event{Kind: EventError, Err: err})
		return err
	}

	msgs := BuildInitialLLMMessages(e.System, message, history)
	turn := []memory.Message{{Role: "user", Content: message}}

	final, turnErr := e.loop(ctx, msgs, &turn, sink)

	if appendErr := e.Memory.Append(ctx, turn, threadID, userID); appendErr != nil {
		observability.LoggerWithTrace(ctx).Error().Err(appendErr).Str("thread_id", threadID).Msg("agent_memory_append_failed")
	}

	if turnErr != nil {
		sink.Emit(Event{Kind: EventError, Err: turnErr})
		return turnErr
	}
	sink.Emit(Event{Kind: EventDone, Content: final})
	return nil
}

func (e *Engine) loadHistory(ctx context.Context, threadID, userID string) ([]llm.Message, error) {
	memMsgs, err := e.Memory.Context(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]llm.Message, 0, len(memMsgs))
	for _, m := range memMsgs {
		out = append(out, toLLMMessage(m))
	}
	return out, nil
}

// loop drives PLAN -> EXECUTE until the model stops requesting tools, the
// hop ceiling is hit, or ctx is cancelled.
func (e *Engine) loop(ctx context.Context, msgs []llm.Message, turn *[]memory.Message, sink EventSink) (string, error) {
	schemas := e.Tools.Schemas()

	for hop := 0; ; hop++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if hop >= e.maxHops() {
			*turn = append(*turn, memory.Message{Role: "assistant", Content: unableToCompleteMessage})
			return unableToCompleteMessage, nil
		}

		resp, err := e.Provider.Chat(ctx, msgs, schemas, e.Model)
		if err != nil {
			return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "agent: provider chat failed", err)
		}
		resp.ToolCalls = ensureToolCallIDs(resp.ToolCalls)

		if len(resp.ToolCalls) == 0 {
			sink.Emit(Event{Kind: EventResponseToken, Content: resp.Content})
			*turn = append(*turn, memory.Message{Role: "assistant", Content: resp.Content})
			return resp.Content, nil
		}

		assistantMsg := memory.Message{Role: "assistant", Content: resp.Content}
		for _, tc := range resp.ToolCalls {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, memory.ToolCallRef{ID: tc.ID, Name: tc.Name, Args: string(tc.Args)})
			sink.Emit(Event{Kind: EventToolCall, ToolID: tc.ID, Name: tc.Name, Args: string(tc.Args)})
		}
		*turn = append(*turn, assistantMsg)
		msgs = append(msgs, resp)

		results, err := e.dispatchTools(ctx, resp.ToolCalls)
		if err != nil {
			return "", err
		}
		for _, r := range results {
			sink.Emit(Event{Kind: EventToolResult, ToolID: r.id, Content: string(r.payload)})
			toolLLMMsg := llm.Message{Role: "tool", ToolID: r.id, Content: string(r.payload)}
			msgs = append(msgs, toolLLMMsg)
			*turn = append(*turn, memory.Message{Role: "tool", Content: string(r.payload), ToolCallID: r.id})
		}
	}
}

type toolResult struct {
	id      string
	payload []byte
}

// dispatchTools runs every requested tool call to completion (or ctx
// cancellation) and returns results in the same order as calls, so
// assistant tool-call messages and their replies stay adjacent and ordered
// (spec §4.7).
func (e *Engine) dispatchTools(ctx context.Context, calls []llm.ToolCall) ([]toolResult, error) {
	out := make([]toolResult, len(calls))
	for i, tc := range calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := e.Tools.Dispatch(ctx, tc.Name, tc.Args)
		if err != nil {
			payload, _ = json.Marshal(map[string]any{"error": fmt.Sprintf("dispatch failed: %v", err)})
		}
		out[i] = toolResult{id: tc.ID, payload: payload}
	}
	return out, nil
}

// ensureToolCallIDs assigns a synthetic ID to any tool call the provider
// left unidentified, so every call can be matched to its reply.
func ensureToolCallIDs(calls []llm.ToolCall) []llm.ToolCall {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = uuid.NewString()
		}
	}
	return calls
}

func toLLMMessage(m memory.Message) llm.Message {
	out := llm.Message{Role: m.Role, Content: m.Content, ToolID: m.ToolCallID}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Args: json.RawMessage(tc.Args)})
	}
	return out
}
