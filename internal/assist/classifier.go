package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dentalstack/intake-platform/pkg/logging"
)

// LLMClassifier implements ConversationClassifier on top of an LLMClient.
type LLMClassifier struct {
	client LLMClient
	model  string
	logger *logging.Logger
}

// NewLLMClassifier creates an LLM-backed conversation classifier.
func NewLLMClassifier(client LLMClient, model string, logger *logging.Logger) *LLMClassifier {
	if client == nil {
		panic("assist: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMClassifier{client: client, model: model, logger: logger}
}

// classifierReply mirrors the JSON contract in conversationSystemPrompt.
type classifierReply struct {
	ResponseMessage   string             `json:"response_message"`
	NextStep          string             `json:"next_step"`
	ExtractedSymptoms []ExtractedSymptom `json:"extracted_symptoms"`
	UrgencyAssessment *UrgencyAssessment `json:"urgency_assessment"`
}

// ProcessTurn sends the full conversation context to the model and parses
// its structured reply. Exactly one model call per turn.
func (c *LLMClassifier) ProcessTurn(ctx context.Context, req ConversationRequest) (*ConversationResponse, error) {
	if strings.TrimSpace(req.PatientMessage) == "" {
		return nil, errors.New("assist: patient message is empty")
	}

	messages := make([]ChatMessage, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: req.PatientMessage})

	resp, err := c.client.Complete(ctx, LLMRequest{
		Model:       c.model,
		System:      []string{conversationSystemPrompt, c.contextBlock(req)},
		Messages:    messages,
		MaxTokens:   600,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("assist: conversation completion failed: %w", err)
	}

	var reply classifierReply
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &reply); err != nil {
		c.logger.Warn("classifier returned unparseable reply",
			"session_id", req.SessionID,
			"error", err,
		)
		return nil, fmt.Errorf("assist: decode classifier reply: %w", err)
	}
	if strings.TrimSpace(reply.ResponseMessage) == "" {
		return nil, errors.New("assist: classifier reply has no response message")
	}

	return &ConversationResponse{
		Message:  strings.TrimSpace(reply.ResponseMessage),
		NextStep: strings.TrimSpace(reply.NextStep),
		Symptoms: reply.ExtractedSymptoms,
		Urgency:  reply.UrgencyAssessment,
	}, nil
}

// contextBlock renders the session state the model needs beyond the raw
// transcript: current step and symptoms collected so far.
func (c *LLMClassifier) contextBlock(req ConversationRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current intake step: %s\n", req.CurrentStep)
	fmt.Fprintf(&sb, "Practice id: %s\n", req.BusinessID)
	if len(req.Symptoms) == 0 {
		sb.WriteString("Symptoms collected so far: none\n")
	} else {
		sb.WriteString("Symptoms collected so far:\n")
		for _, s := range req.Symptoms {
			fmt.Fprintf(&sb, "- %s (%s)\n", s.Text, s.Category)
		}
	}
	return sb.String()
}

// extractJSON trims surrounding prose from a model reply; LLMs occasionally
// wrap the JSON payload in commentary or code fences.
func extractJSON(text string) string {
	content := strings.TrimSpace(text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		return content[startIdx : endIdx+1]
	}
	return content
}
