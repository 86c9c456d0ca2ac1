package memory

import (
	"context"
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/llm"
)

type fakeSummarizer struct {
	calls int
	text  string
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, existing string, tail []Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestAppendAndContextRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	mgr := New(store, nil)

	err := mgr.Append(context.Background(), []Message{
		{Role: "user", Content: "cari rumah di bandung"},
		{Role: "assistant", Content: "baik, budget berapa?"},
	}, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := mgr.Context(context.Background(), "thread-1", "user-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestContextKeysByThreadAndUserIndependently(t *testing.T) {
	store := NewInMemoryStore()
	mgr := New(store, nil)

	_ = mgr.Append(context.Background(), []Message{{Role: "user", Content: "a"}}, "thread-1", "user-1")
	_ = mgr.Append(context.Background(), []Message{{Role: "user", Content: "b"}}, "thread-1", "user-2")

	msgsA, _ := mgr.Context(context.Background(), "thread-1", "user-1")
	msgsB, _ := mgr.Context(context.Background(), "thread-1", "user-2")
	if len(msgsA) != 1 || msgsA[0].Content != "a" {
		t.Fatalf("expected user-1's own history, got %+v", msgsA)
	}
	if len(msgsB) != 1 || msgsB[0].Content != "b" {
		t.Fatalf("expected user-2's own history, got %+v", msgsB)
	}
}

func TestContextDropsLeadingOrphanToolMessage(t *testing.T) {
	store := NewInMemoryStore()
	mgr := New(store, nil)
	mgr.WindowSize = 2 // force the window to start mid-pair

	_ = mgr.Append(context.Background(), []Message{
		{Role: "assistant", Content: "", ToolCalls: []ToolCallRef{{ID: "call-1", Name: "search_properties"}}},
		{Role: "tool", Content: "{}", ToolCallID: "call-1"},
		{Role: "assistant", Content: "done"},
	}, "thread-1", "user-1")

	msgs, err := mgr.Context(context.Background(), "thread-1", "user-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	// Window of 2 keeps [tool, assistant-done], but the tool message's
	// parent assistant call fell outside the window, so it must be dropped.
	for _, m := range msgs {
		if m.Role == "tool" {
			t.Fatalf("expected orphan tool message dropped, got %+v", msgs)
		}
	}
}

func TestContextDropsToolMessageWithUnmatchedID(t *testing.T) {
	store := NewInMemoryStore()
	mgr := New(store, nil)

	_ = mgr.Append(context.Background(), []Message{
		{Role: "tool", Content: "{}", ToolCallID: "nonexistent"},
		{Role: "assistant", Content: "final"},
	}, "thread-1", "user-1")

	msgs, _ := mgr.Context(context.Background(), "thread-1", "user-1")
	if len(msgs) != 1 || msgs[0].Role != "assistant" {
		t.Fatalf("expected unmatched tool message dropped, got %+v", msgs)
	}
}

func TestContextPrependsSummaryWhenPresent(t *testing.T) {
	store := NewInMemoryStore()
	_ = store.UpdateSummary(context.Background(), "thread-1", "user-1", Summary{Text: "user wants a house in Bandung", SummarizedCount: 3})
	mgr := New(store, nil)

	_ = mgr.Append(context.Background(), []Message{{Role: "user", Content: "hi again"}}, "thread-1", "user-1")
	msgs, err := mgr.Context(context.Background(), "thread-1", "user-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if msgs[0].Role != "system" || msgs[0].Content != "user wants a house in Bandung" {
		t.Fatalf("expected summary as leading system message, got %+v", msgs[0])
	}
}

func TestMaybeSummarizeTriggersPastThresholdAndPersists(t *testing.T) {
	store := NewInMemoryStore()
	summarizer := &fakeSummarizer{text: "condensed summary"}
	mgr := New(store, summarizer)
	mgr.SummarizeThreshold = 5
	mgr.WindowSize = 2

	msgs := make([]Message, 0, 6)
	for i := 0; i < 6; i++ {
		msgs = append(msgs, Message{Role: "user", Content: "turn"})
	}
	_ = mgr.Append(context.Background(), msgs, "thread-1", "user-1")

	_, err := mgr.Context(context.Background(), "thread-1", "user-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if summarizer.calls != 1 {
		t.Fatalf("expected summarizer invoked once, got %d calls", summarizer.calls)
	}
	sum, _ := store.GetSummary(context.Background(), "thread-1", "user-1")
	if sum.Text != "condensed summary" {
		t.Fatalf("expected persisted summary, got %q", sum.Text)
	}
}

func TestMaybeSummarizeSkipsBelowThreshold(t *testing.T) {
	store := NewInMemoryStore()
	summarizer := &fakeSummarizer{text: "should not be called"}
	mgr := New(store, summarizer)

	_ = mgr.Append(context.Background(), []Message{{Role: "user", Content: "hi"}}, "thread-1", "user-1")
	_, _ = mgr.Context(context.Background(), "thread-1", "user-1")
	if summarizer.calls != 0 {
		t.Fatalf("expected no summarization below threshold, got %d calls", summarizer.calls)
	}
}

var _ llm.Provider = (*stubProvider)(nil)

type stubProvider struct{}

func (stubProvider) Chat(_ context.Context, _ []llm.Message, _ []llm.ToolSchema, _ string) (llm.Message, error) {
	return llm.Message{Role: "assistant", Content: "ok"}, nil
}
func (stubProvider) ChatStream(_ context.Context, _ []llm.Message, _ []llm.ToolSchema, _ string, _ llm.StreamHandler) error {
	return nil
}

func TestLLMSummarizerCallsProvider(t *testing.T) {
	s := NewLLMSummarizer(stubProvider{}, "test-model")
	out, err := s.Summarize(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected provider response passed through, got %q", out)
	}
}
