package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/llm"
	"github.com/ripinlibinus/rag-property-assistant/internal/memory"
)

// scriptedProvider replays a fixed sequence of Chat responses, one per call,
// so tests can drive the PLAN/EXECUTE loop deterministically.
type scriptedProvider struct {
	responses []llm.Message
	calls     int
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ []llm.ToolSchema, _ string) (llm.Message, error) {
	if p.calls >= len(p.responses) {
		return llm.Message{Role: "assistant", Content: "out of script"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) ChatStream(_ context.Context, _ []llm.Message, _ []llm.ToolSchema, _ string, _ llm.StreamHandler) error {
	return nil
}

type echoTool struct{}

func (echoTool) Name() string                 { return "echo" }
func (echoTool) JSONSchema() map[string]any   { return map[string]any{"description": "echo"} }
func (echoTool) Call(_ context.Context, raw json.RawMessage) (any, error) {
	return map[string]any{"echoed": string(raw)}, nil
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(e Event) { s.events = append(s.events, e) }

func newTestEngine(provider llm.Provider) *Engine {
	tools := NewRegistry()
	tools.Register(echoTool{})
	mem := memory.New(memory.NewInMemoryStore(), nil)
	return New(provider, tools, mem, "system prompt", "test-model")
}

func TestEngineRespondsDirectlyWithNoToolCalls(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", Content: "hello there"},
	}}
	e := newTestEngine(provider)

	final, err := e.Chat(context.Background(), "hi", "thread-1", "user-1")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if final != "hello there" {
		t.Fatalf("expected direct response, got %q", final)
	}
}

func TestEngineRunsToolThenRespondsWithAdjacentPairs(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{Name: "echo", Args: json.RawMessage(`{"x":1}`)}}},
		{Role: "assistant", Content: "done"},
	}}
	e := newTestEngine(provider)
	sink := &recordingSink{}

	err := e.ChatStream(context.Background(), "call echo", "thread-1", "user-1", sink)
	if err != nil {
		t.Fatalf("chat_stream: %v", err)
	}

	var sawToolCall, sawToolResult bool
	for i, ev := range sink.events {
		if ev.Kind == EventToolCall {
			sawToolCall = true
			if i+1 >= len(sink.events) || sink.events[i+1].Kind != EventToolResult {
				t.Fatalf("expected tool_result to immediately follow tool_call, got %+v", sink.events)
			}
		}
		if ev.Kind == EventToolResult {
			sawToolResult = true
		}
	}
	if !sawToolCall || !sawToolResult {
		t.Fatalf("expected both tool_call and tool_result events, got %+v", sink.events)
	}
	if sink.events[len(sink.events)-1].Kind != EventDone {
		t.Fatalf("expected final event to be done, got %+v", sink.events[len(sink.events)-1])
	}
}

func TestEngineExceedingHopCeilingForcesFixedResponse(t *testing.T) {
	// Every response requests another tool call, so the loop never
	// naturally terminates and must hit the hop ceiling.
	looping := llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{{Name: "echo", Args: json.RawMessage(`{}`)}}}
	responses := make([]llm.Message, 0, 20)
	for i := 0; i < 20; i++ {
		responses = append(responses, looping)
	}
	provider := &scriptedProvider{responses: responses}
	e := newTestEngine(provider)
	e.MaxToolHops = 2

	final, err := e.Chat(context.Background(), "loop forever", "thread-1", "user-1")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if final != unableToCompleteMessage {
		t.Fatalf("expected fixed unable-to-complete message, got %q", final)
	}
}

func TestEngineCancellationStopsLoopAndDiscardsResults(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{Name: "echo", Args: json.RawMessage(`{}`)}}},
		{Role: "assistant", Content: "done"},
	}}
	e := newTestEngine(provider)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Chat(ctx, "hi", "thread-1", "user-1")
	if err == nil {
		t.Fatalf("expected cancellation error, got nil")
	}
}

func TestEngineAppendsTurnToMemory(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", Content: "hello there"},
	}}
	tools := NewRegistry()
	tools.Register(echoTool{})
	store := memory.NewInMemoryStore()
	mem := memory.New(store, nil)
	e := New(provider, tools, mem, "system", "test-model")

	_, err := e.Chat(context.Background(), "hi", "thread-1", "user-1")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	msgs, err := mem.Context(context.Background(), "thread-1", "user-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user+assistant turn persisted, got %d messages: %+v", len(msgs), msgs)
	}
}
