package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dentalstack/intake-platform/pkg/logging"
)

// LLMSummarizer implements Summarizer on top of an LLMClient.
type LLMSummarizer struct {
	client LLMClient
	model  string
	logger *logging.Logger
}

// NewLLMSummarizer creates an LLM-backed clinical summarizer.
func NewLLMSummarizer(client LLMClient, model string, logger *logging.Logger) *LLMSummarizer {
	if client == nil {
		panic("assist: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMSummarizer{client: client, model: model, logger: logger}
}

// SummarizeForDentist produces a hand-off note from a finished transcript.
func (s *LLMSummarizer) SummarizeForDentist(ctx context.Context, req SummaryRequest) (string, error) {
	if len(req.History) == 0 {
		return "", errors.New("assist: cannot summarize an empty transcript")
	}

	var sb strings.Builder
	sb.WriteString("Intake transcript:\n")
	for _, msg := range req.History {
		role := "Patient"
		if msg.Role == ChatRoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
	}
	if len(req.Symptoms) > 0 {
		sb.WriteString("\nRecorded symptoms:\n")
		for _, sym := range req.Symptoms {
			fmt.Fprintf(&sb, "- %s (%s)\n", sym.Text, sym.Category)
		}
	}
	if req.UrgencyScore != nil {
		fmt.Fprintf(&sb, "\nAssessed urgency: %d/10\n", *req.UrgencyScore)
	}

	resp, err := s.client.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{summarizerSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: sb.String()}},
		MaxTokens:   400,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("assist: summary completion failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", errors.New("assist: summarizer returned empty text")
	}
	return summary, nil
}
