package memory

import (
	"context"
	"strings"

	"github.com/ripinlibinus/rag-property-assistant/internal/llm"
)

// LLMSummarizer implements Summarizer over an llm.Provider, grounded on
// internal/agent/memory/manager.go's plainSummarize prompt shape.
type LLMSummarizer struct {
	Provider llm.Provider
	Model    string
}

func NewLLMSummarizer(provider llm.Provider, model string) *LLMSummarizer {
	return &LLMSummarizer{Provider: provider, Model: model}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, existingSummary string, tail []Message) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Update the running summary of this conversation about Indonesian property search. ")
	prompt.WriteString("Keep it concise but information-dense: preserve stated preferences (location, budget, property type), ")
	prompt.WriteString("properties already shown, and open questions.\n")
	if strings.TrimSpace(existingSummary) != "" {
		prompt.WriteString("\nExisting summary:\n")
		prompt.WriteString(strings.TrimSpace(existingSummary))
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nNew turns:\n")
	for _, msg := range tail {
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}

	resp, err := s.Provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You summarize conversations faithfully and briefly."},
		{Role: "user", Content: prompt.String()},
	}, nil, s.Model)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
