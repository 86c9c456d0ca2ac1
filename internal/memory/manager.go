package memory

import (
	"context"
	"strings"

	"github.com/ripinlibinus/rag-property-assistant/internal/observability"
)

const (
	// DefaultWindowSize is N in spec §4.8: the number of trailing raw
	// messages Context returns alongside the optional summary.
	DefaultWindowSize = 20
	// DefaultSummarizeThreshold is the message count beyond which an older
	// tail becomes eligible for auto-summarization.
	DefaultSummarizeThreshold = 50
)

// Summarizer condenses an existing summary plus an older tail of messages
// into a single updated summary. Implementations typically wrap an
// llm.Provider with a purpose-built system prompt.
type Summarizer interface {
	Summarize(ctx context.Context, existingSummary string, tail []Message) (string, error)
}

// Manager is C8's contract: Append(turn_messages, thread_id, user_id) and
// Context(thread_id, user_id) -> []Message, grounded on
// internal/agent/memory/manager.go's BuildContextForProvider (tail
// selection, ensureSummary) and adjustIndexForToolDeps (sequence safety),
// simplified from the teacher's token-budget backward walk down to the
// spec's fixed message-count window and threshold.
type Manager struct {
	Store      Store
	Summarizer Summarizer // nil disables auto-summarization

	WindowSize         int
	SummarizeThreshold int
}

func New(store Store, summarizer Summarizer) *Manager {
	return &Manager{
		Store:              store,
		Summarizer:         summarizer,
		WindowSize:         DefaultWindowSize,
		SummarizeThreshold: DefaultSummarizeThreshold,
	}
}

// Append commits turnMessages as the single atomic write for one turn (per
// spec: "a partial crash never produces a tool message without its parent
// assistant"). Anonymous access (userID == "") is allowed but logged.
func (m *Manager) Append(ctx context.Context, turnMessages []Message, threadID, userID string) error {
	if strings.TrimSpace(threadID) == "" {
		return nil
	}
	if userID == "" {
		observability.LoggerWithTrace(ctx).Warn().Str("thread_id", threadID).Msg("memory_append_anonymous_user")
	}
	for i := range turnMessages {
		turnMessages[i].ThreadID = threadID
		turnMessages[i].UserID = userID
	}
	return m.Store.AppendMessages(ctx, threadID, userID, turnMessages)
}

// Context assembles the message list to send to the LLM: an optional
// summary system message, then the last WindowSize raw messages in
// chronological order, with orphan tool messages repaired away.
func (m *Manager) Context(ctx context.Context, threadID, userID string) ([]Message, error) {
	if userID == "" {
		observability.LoggerWithTrace(ctx).Warn().Str("thread_id", threadID).Msg("memory_context_anonymous_user")
	}

	all, err := m.Store.ListMessages(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	sum, err := m.Store.GetSummary(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	sum = m.maybeSummarize(ctx, threadID, userID, all, sum)

	window := m.windowSize()
	start := len(all) - window
	if start < 0 {
		start = 0
	}
	tail := repairSequence(all[start:])

	out := make([]Message, 0, len(tail)+1)
	if strings.TrimSpace(sum.Text) != "" {
		out = append(out, Message{Role: "system", Content: sum.Text, ThreadID: threadID, UserID: userID})
	}
	out = append(out, tail...)
	return out, nil
}

func (m *Manager) windowSize() int {
	if m.WindowSize <= 0 {
		return DefaultWindowSize
	}
	return m.WindowSize
}

func (m *Manager) summarizeThreshold() int {
	if m.SummarizeThreshold <= 0 {
		return DefaultSummarizeThreshold
	}
	return m.SummarizeThreshold
}

// maybeSummarize runs the auto-summarization rule (spec §4.8): once the
// conversation exceeds the threshold and an older tail beyond the window
// remains unsummarized, the summarizer condenses it and the result
// atomically replaces the previous summary.
func (m *Manager) maybeSummarize(ctx context.Context, threadID, userID string, all []Message, sum Summary) Summary {
	if m.Summarizer == nil {
		return sum
	}
	total := len(all)
	if total <= m.summarizeThreshold() {
		return sum
	}
	cutoff := total - m.windowSize()
	if cutoff <= sum.SummarizedCount {
		return sum
	}

	fresh := all[sum.SummarizedCount:cutoff]
	if len(fresh) == 0 {
		return sum
	}

	updated, err := m.Summarizer.Summarize(ctx, sum.Text, fresh)
	if err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Str("thread_id", threadID).Msg("memory_summarize_failed")
		return sum
	}

	newSum := Summary{Text: updated, SummarizedCount: cutoff}
	if err := m.Store.UpdateSummary(ctx, threadID, userID, newSum); err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Str("thread_id", threadID).Msg("memory_summary_persist_failed")
		return sum
	}
	return newSum
}

// repairSequence drops leading orphan tool messages and any tool message
// whose tool_call_id isn't matched by a retained assistant.tool_calls
// entry, protecting the downstream LLM from protocol violations (spec
// §4.8/§4.12), grounded on adjustIndexForToolDeps's dependency-matching
// logic but applied forward (drop unmatched) rather than backward (extend
// the cut).
func repairSequence(msgs []Message) []Message {
	known := make(map[string]struct{})
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == "tool" {
			if _, ok := known[msg.ToolCallID]; !ok {
				continue
			}
			delete(known, msg.ToolCallID)
			out = append(out, msg)
			continue
		}
		if msg.Role == "assistant" {
			for _, tc := range msg.ToolCalls {
				known[tc.ID] = struct{}{}
			}
		}
		out = append(out, msg)
	}
	return out
}
